package story

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		lang Language
		want string
	}{
		{English, "en-US"},
		{Hindi, "hi-IN"},
		{Marathi, "mr-IN"},
		{Urdu, "ur-IN"},
		{Language("Klingon"), "en-US"},
		{Language(""), "en-US"},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lang.Code())
		})
	}
}

func TestParseLanguage(t *testing.T) {
	l, err := ParseLanguage("hindi")
	require.NoError(t, err)
	assert.Equal(t, Hindi, l)

	l, err = ParseLanguage("  ")
	require.NoError(t, err)
	assert.Equal(t, English, l)

	_, err = ParseLanguage("French")
	assert.Error(t, err)
}

func TestRequestValidate(t *testing.T) {
	valid := Request{Character: "Luna", Category: "Space Story", AgeGroup: "Kids", Language: Hindi}
	assert.NoError(t, valid.Validate())

	custom := valid
	custom.Category = "Dinosaur Picnic"
	assert.NoError(t, custom.Validate())

	noCharacter := valid
	noCharacter.Character = " "
	assert.Error(t, noCharacter.Validate())

	noCategory := valid
	noCategory.Category = ""
	assert.Error(t, noCategory.Validate())

	badLanguage := valid
	badLanguage.Language = "Elvish"
	assert.Error(t, badLanguage.Validate())
}

func TestRecordRequest(t *testing.T) {
	rec := Record{ID: "x", Character: "Luna", Category: "Bedtime", AgeGroup: "Kids", Language: Urdu}
	assert.Equal(t, Request{Character: "Luna", Category: "Bedtime", AgeGroup: "Kids", Language: Urdu}, rec.Request())
}

func TestFailureMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("mount: %w", NewFailure(FetchError, "fetch story", cause))

	assert.True(t, errors.Is(err, ErrFetch))
	assert.False(t, errors.Is(err, ErrPersist))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, FetchError, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(cause))
	assert.Equal(t, "fetch error during fetch story: connection refused", NewFailure(FetchError, "fetch story", cause).Error())
}
