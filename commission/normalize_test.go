package commission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/agency-reports/commission"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"ABC Realty", "Abc Realty"},
		{"abc   realty", "Abc Realty"},
		{"  ray white  ", "Ray White"},
		{"smith-jones", "Smith Jones"},
		{"harcourts\tnorth", "Harcourts North"},
		{"", commission.UnknownName},
		{"   ", commission.UnknownName},
		{"--", commission.UnknownName},
		{"realty #1", "Realty #1"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, commission.NormalizeName(tt.raw))
		})
	}
}

func TestNormalizeSuburb(t *testing.T) {
	assert.Equal(t, "Spring Hill", commission.NormalizeSuburb("spring hill"))
	assert.Equal(t, "St Kilda", commission.NormalizeSuburb("ST KILDA"))
	assert.Equal(t, "St Kilda", commission.NormalizeSuburb("st-kilda"))
	assert.Equal(t, commission.UnknownName, commission.NormalizeSuburb(""))
}

func TestNormalizeOptional(t *testing.T) {
	name := "ray white"
	assert.Equal(t, commission.UnknownName, commission.NormalizeOptional(nil))
	assert.Equal(t, "Ray White", commission.NormalizeOptional(&name))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"ABC Realty", "abc   realty", "o'brien estates", "mcgrath-north", "st. kilda",
		"", "  ", "Realty #1", "ÉLITE homes", "x", "a-b-c d",
	}
	for _, in := range inputs {
		once := commission.NormalizeName(in)
		assert.Equal(t, once, commission.NormalizeName(once), "name %q", in)

		onceSuburb := commission.NormalizeSuburb(in)
		assert.Equal(t, onceSuburb, commission.NormalizeSuburb(onceSuburb), "suburb %q", in)
	}
}
