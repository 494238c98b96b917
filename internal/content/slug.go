package content

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

const fallbackSlug = "untitled"

// Slugify lowercases s and joins its letter and digit runs with hyphens:
// "Hello, World!" becomes "hello-world".
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// SlugExists reports whether a slug is already taken.
type SlugExists func(ctx context.Context, slug string) (bool, error)

// UniqueSlug slugifies title and appends -2, -3, ... until exists reports the candidate free.
func UniqueSlug(ctx context.Context, title string, exists SlugExists) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = fallbackSlug
	}

	candidate := base
	for n := 2; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
