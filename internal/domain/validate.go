package domain

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateKaraoke checks the record invariants: numeric id, non-empty title
// and a known source.
func ValidateKaraoke(result KaraokeResult) error {
	return validatorInstance().Struct(result)
}

// ValidateLyrics checks that the record has a title and an absolute http(s) URL.
func ValidateLyrics(result LyricsResult) error {
	return validatorInstance().Struct(result)
}

