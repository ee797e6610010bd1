// Package akismet provides a client for the Akismet spam detection API. The primary types in this package
// are Params, an immutable set of request fields, and Client, which sends them to the API.
//
// Params is built with With* methods, each of them returns a new value and never modifies the receiver:
//
//	p, err := akismet.Params{}.WithRequestParams(akismet.RequestInfo{IP: "127.0.0.1", UserAgent: ua})
//	if err != nil {
//		return err
//	}
//	p, err = p.WithComment(akismet.Comment{Content: text, Type: akismet.CommentTypeComment})
//
// Client supports four operations:
//
//   - VerifyKey checks that the api key is valid for the given website.
//
//   - Check classifies the comment as spam or ham and returns Result with the verdict and the parameters
//     sent to the API. If the parameters have no website url the one from Config is used.
//
//   - SubmitSpam and SubmitHam report missed spam or false positives back to the API.
//
// Invalid parameters are rejected with ValidationError before any request is made. Failures of the
// underlying HTTPClient are reported as HTTPError, and responses violating the API contract as APIError.
// The client never retries, the caller decides what to do with transport errors.
//
// Config.HTTPClient specifies the HTTP client to use for requests. This interface is satisfied
// by the standard library's http.Client type.
package akismet

import (
	"fmt"
	"strings"
)

const (
	// VerifyKeyURL is the endpoint for key verification
	VerifyKeyURL = "https://rest.akismet.com/1.1/verify-key"
	// UserAgent is sent with every request
	UserAgent = "umputun/akismet Go API Client/1.0.0"

	apiURLTemplate   = "https://%s.rest.akismet.com/1.1/%s"
	actionCheck      = "comment-check"
	actionSubmitSpam = "submit-spam"
	actionSubmitHam  = "submit-ham"
	submitThanks     = "Thanks for making the web a better place."
)

// CommentType is a type of the content sent for classification
type CommentType string

// enum of comment types supported by the API
const (
	CommentTypeComment     CommentType = "comment"
	CommentTypeForumPost   CommentType = "forum-post"
	CommentTypeReply       CommentType = "reply"
	CommentTypeBlogPost    CommentType = "blog-post"
	CommentTypeContactForm CommentType = "contact-form"
	CommentTypeSignup      CommentType = "signup"
	CommentTypeMessage     CommentType = "message"
)

// CommentTypes returns all supported comment types
func CommentTypes() []CommentType {
	return []CommentType{CommentTypeComment, CommentTypeForumPost, CommentTypeReply, CommentTypeBlogPost,
		CommentTypeContactForm, CommentTypeSignup, CommentTypeMessage}
}

// ParseCommentType converts a string to CommentType, case-insensitive
func ParseCommentType(s string) (CommentType, error) {
	for _, ct := range CommentTypes() {
		if strings.EqualFold(s, string(ct)) {
			return ct, nil
		}
	}
	return "", &ValidationError{Field: FieldCommentType, Message: fmt.Sprintf("unknown comment type %q", s)}
}

// Valid returns true if the comment type is one of the supported types
func (c CommentType) Valid() bool {
	for _, ct := range CommentTypes() {
		if c == ct {
			return true
		}
	}
	return false
}

func (c CommentType) String() string { return string(c) }
