package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DJs & Bands", "djs-bands"},
		{"djs-bands", "djs-bands"},
		{"  Wedding   Photographers ", "wedding-photographers"},
		{"Greater Manchester", "greater-manchester"},
		{"Café Crème", "cafe-creme"},
		{"--Cake--Makers--", "cake-makers"},
		{"Hair & Make-up", "hair-make-up"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSlug(tt.in))
		})
	}
}

func TestToSlugIdempotent(t *testing.T) {
	inputs := []string{"DJs & Bands", "Newcastle upon Tyne", "Ünïcödé Cakes", "a--b__c", " x "}
	for _, in := range inputs {
		once := ToSlug(in)
		assert.Equal(t, once, ToSlug(once), in)
	}
}

func TestToSlugCaseAndWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t, ToSlug("djs-bands"), ToSlug("DJs & Bands"))
	assert.Equal(t, ToSlug("MANCHESTER"), ToSlug("  manchester\t"))
}

func TestToTitle(t *testing.T) {
	assert.Equal(t, "Wedding Cakes", ToTitle("wedding-cakes"))
	assert.Equal(t, "Manchester", ToTitle("manchester"))
	assert.Equal(t, "Djs Bands", ToTitle("djs-bands"))
	assert.Equal(t, "", ToTitle(""))
}
