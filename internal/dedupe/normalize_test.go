package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeForMatch(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Sanjeevani Multispeciality Hospital", "sanjeevani"},
		{"Sanjeevani", "sanjeevani"},
		{"City Care Centre", "city"},
		{"Apollo Hospital Pvt. Ltd.", "apollo"},
		{"", ""},
		{"Hospital", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeForMatch(tt.in), "in=%q", tt.in)
	}
}

func TestSimilarity_IdenticalAfterNoise(t *testing.T) {
	score := similarity("Sanjeevani Hospital", "Sanjeevani Multispeciality Hospital")
	assert.Greater(t, score, 0.85)
}

func TestSimilarity_ContainmentBonus(t *testing.T) {
	plain := similarity("Lifeline Hospital", "Lifeline Krishna Hospital")
	assert.Greater(t, plain, similarity("Lifeline Hospital", "Krishnaline Hospital"))
}

func TestSimilarity_ShortNamesRequireExactMatch(t *testing.T) {
	assert.Equal(t, 1.0, similarity("Om Hospital", "Om Clinic"))
	assert.Equal(t, 0.0, similarity("Om Hospital", "Sai Hospital"))
}

func TestSimilarity_EmptyNames(t *testing.T) {
	assert.Equal(t, 0.0, similarity("", "Sri Hospital"))
	assert.Equal(t, 0.0, similarity("Hospital", "Sri Krishna"))
}

func TestSimilarity_Unrelated(t *testing.T) {
	assert.Less(t, similarity("Sunshine Hospital", "Greenfield Hospital"), 0.85)
}
