package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	MaxCaptionLength = 2000
	MaxCommentLength = 1000
)

// ValidateCaption rejects blank or oversized post captions.
func ValidateCaption(caption string) error {
	if strings.TrimSpace(caption) == "" {
		return fmt.Errorf("caption must not be empty")
	}
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return fmt.Errorf("caption must not exceed %d characters", MaxCaptionLength)
	}
	return nil
}

// ValidateCommentContent rejects blank or oversized comments.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("comment must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return fmt.Errorf("comment must not exceed %d characters", MaxCommentLength)
	}
	return nil
}

// ValidateMediaRef accepts an http(s) URL or an inline data URI. Empty is allowed.
func ValidateMediaRef(ref string) error {
	if ref == "" {
		return nil
	}
	if strings.HasPrefix(ref, "data:") {
		if !strings.Contains(ref, ",") {
			return fmt.Errorf("media data URI is malformed")
		}
		return nil
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("media must be an http(s) URL or a data URI")
	}
	return nil
}
