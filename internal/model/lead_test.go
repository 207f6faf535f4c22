package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFieldsCoverValueAndSetValue(t *testing.T) {
	fields := MergeFields()
	assert.Len(t, fields, 12)

	l := &Lead{}
	for _, f := range fields {
		if f == FieldLeadScore {
			continue
		}
		l.SetValue(f, "v-"+string(f))
		assert.Equal(t, "v-"+string(f), l.Value(f), "field %s should round-trip", f)
	}
}

func TestKnownField(t *testing.T) {
	assert.True(t, KnownField(FieldContactEmail))
	assert.True(t, KnownField(FieldLinkedInURL))
	assert.False(t, KnownField(Field("contactEmail")))
	assert.False(t, KnownField(Field("")))
}

func TestLeadScoreValue(t *testing.T) {
	l := &Lead{}
	assert.Equal(t, "", l.Value(FieldLeadScore), "zero score reads as empty")

	l.LeadScore = 87.5
	assert.Equal(t, "87.5", l.Value(FieldLeadScore))

	l.SetValue(FieldLeadScore, "92")
	assert.Equal(t, 92.0, l.LeadScore)

	l.SetValue(FieldLeadScore, "not a number")
	assert.Equal(t, 92.0, l.LeadScore, "unparseable score is ignored")
}

func TestValueUnknownField(t *testing.T) {
	l := &Lead{ContactEmail: "j@acme.com"}
	assert.Equal(t, "", l.Value(Field("bogus")))
}
