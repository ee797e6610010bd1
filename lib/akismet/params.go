package akismet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net"
	"net/http"
	"net/mail"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

// recognized parameter names
const (
	FieldBlog                   = "blog"
	FieldUserIP                 = "user_ip"
	FieldUserAgent              = "user_agent"
	FieldReferrer               = "referrer"
	FieldPermalink              = "permalink"
	FieldCommentType            = "comment_type"
	FieldCommentAuthor          = "comment_author"
	FieldCommentAuthorEmail     = "comment_author_email"
	FieldCommentAuthorURL       = "comment_author_url"
	FieldCommentContent         = "comment_content"
	FieldCommentDateGMT         = "comment_date_gmt"
	FieldCommentPostModifiedGMT = "comment_post_modified_gmt"
	FieldBlogLang               = "blog_lang"
	FieldBlogCharset            = "blog_charset"
	FieldUserRole               = "user_role"
	FieldIsTest                 = "is_test"
	FieldRecheckReason          = "recheck_reason"
	FieldHoneypotName           = "honeypot_field_name"
	FieldHoneypotValue          = "honeypot_field_value"
)

var validFields = map[string]struct{}{
	FieldBlog: {}, FieldUserIP: {}, FieldUserAgent: {}, FieldReferrer: {}, FieldPermalink: {},
	FieldCommentType: {}, FieldCommentAuthor: {}, FieldCommentAuthorEmail: {}, FieldCommentAuthorURL: {},
	FieldCommentContent: {}, FieldCommentDateGMT: {}, FieldCommentPostModifiedGMT: {}, FieldBlogLang: {},
	FieldBlogCharset: {}, FieldUserRole: {}, FieldIsTest: {}, FieldRecheckReason: {},
	FieldHoneypotName: {}, FieldHoneypotValue: {},
}

// required parameters in the order they are checked
var requiredFields = []struct {
	name string
	msg  string
}{
	{FieldUserIP, "the IP address of the remote user is a required parameter"},
	{FieldBlog, "the website address of the target website is a required parameter"},
	{FieldCommentContent, "the comment content is a required parameter"},
	{FieldCommentType, "the comment type is a required parameter"},
}

// dateLayout is ISO-8601 with numeric offset, i.e. 2020-01-01T12:34:56+00:00
const dateLayout = "2006-01-02T15:04:05-07:00"

// Params is an immutable set of request parameters. All With* methods return a new Params with the given
// values merged over the existing ones, the receiver is never changed. The zero value is an empty set.
type Params struct {
	values map[string]string
}

// RequestInfo describes the request of the comment author
type RequestInfo struct {
	IP        string // remote ip address, required
	UserAgent string // user agent of the browser, optional
	Referrer  string // referer header, optional, must be a valid url if set
	Permalink string // url of the page the comment was posted to, optional, must be a valid url if set
}

// Comment describes the content sent for classification
type Comment struct {
	Content     string      // comment text, required
	Type        CommentType // type of the content, required
	Date        time.Time   // creation time, optional, converted to UTC
	AuthorName  string      // optional
	AuthorEmail string      // optional, must be a valid email if set
	AuthorURL   string      // optional, must be a valid url if set
}

// NewParams makes Params from the given values. All keys should be recognized parameter names.
func NewParams(values map[string]string) (Params, error) {
	res := Params{values: make(map[string]string, len(values))}
	for k, v := range values {
		if err := res.set(k, v); err != nil {
			return Params{}, err
		}
	}
	return res, nil
}

// FromRequest makes Params from the http request of the comment author. It takes the remote address,
// user agent and referer from the request, and the full request url as the permalink.
func FromRequest(r *http.Request) (Params, error) {
	if r == nil {
		return Params{}, &ValidationError{Field: FieldUserIP, Message: "request is nil"}
	}
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if ip == "" {
		return Params{}, &ValidationError{Field: FieldUserIP, Message: "remote address is not set in the request"}
	}
	return Params{}.WithRequestParams(RequestInfo{
		IP:        ip,
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		Permalink: requestURL(r),
	})
}

// WithRequest merges parameters taken from the http request, see FromRequest
func (p Params) WithRequest(r *http.Request) (Params, error) {
	rp, err := FromRequest(r)
	if err != nil {
		return p, err
	}
	return p.merge(rp.values), nil
}

// WithRequestParams sets parameters of the author's request. IP is required and should be a valid ip address,
// other fields are set only if not empty.
func (p Params) WithRequestParams(ri RequestInfo) (Params, error) {
	if _, err := netip.ParseAddr(ri.IP); err != nil {
		return p, &ValidationError{Field: FieldUserIP, Message: fmt.Sprintf("expected a value to be an IP. Got: %q", ri.IP)}
	}
	if err := checkOptionalURL(FieldReferrer, ri.Referrer); err != nil {
		return p, err
	}
	if err := checkOptionalURL(FieldPermalink, ri.Permalink); err != nil {
		return p, err
	}
	return p.merge(nonEmpty(map[string]string{
		FieldUserIP:    ri.IP,
		FieldUserAgent: ri.UserAgent,
		FieldReferrer:  ri.Referrer,
		FieldPermalink: ri.Permalink,
	})), nil
}

// WithComment sets comment parameters. Content and type are always set, other fields only if not empty.
func (p Params) WithComment(c Comment) (Params, error) {
	if !c.Type.Valid() {
		return p, &ValidationError{Field: FieldCommentType, Message: fmt.Sprintf("unknown comment type %q", c.Type)}
	}
	if c.AuthorEmail != "" {
		addr, err := mail.ParseAddress(c.AuthorEmail)
		if err != nil || addr.Address != c.AuthorEmail {
			return p, &ValidationError{Field: FieldCommentAuthorEmail,
				Message: fmt.Sprintf("expected a value to be a valid e-mail address. Got: %q", c.AuthorEmail)}
		}
	}
	if err := checkOptionalURL(FieldCommentAuthorURL, c.AuthorURL); err != nil {
		return p, err
	}

	vals := nonEmpty(map[string]string{
		FieldCommentAuthor:      c.AuthorName,
		FieldCommentAuthorEmail: c.AuthorEmail,
		FieldCommentAuthorURL:   c.AuthorURL,
	})
	vals[FieldCommentContent] = c.Content
	vals[FieldCommentType] = string(c.Type)
	if !c.Date.IsZero() {
		vals[FieldCommentDateGMT] = c.Date.UTC().Format(dateLayout)
	}
	return p.merge(vals), nil
}

// WithHostInformation sets the website url, language and charset. The url is required and should be
// a complete and valid url, language and charset are set only if not empty.
func (p Params) WithHostInformation(websiteURL, language, charset string) (Params, error) {
	if err := checkURL(FieldBlog, websiteURL); err != nil {
		return p, err
	}
	return p.merge(nonEmpty(map[string]string{
		FieldBlog:        websiteURL,
		FieldBlogLang:    language,
		FieldBlogCharset: charset,
	})), nil
}

// WithWebsiteURL sets the website url, overwriting the existing one
func (p Params) WithWebsiteURL(websiteURL string) (Params, error) {
	if err := checkURL(FieldBlog, websiteURL); err != nil {
		return p, err
	}
	return p.merge(map[string]string{FieldBlog: websiteURL}), nil
}

// MarkAsTest sets the test flag, the API won't learn from such requests
func (p Params) MarkAsTest() Params {
	return p.merge(map[string]string{FieldIsTest: "1"})
}

// WithHoneyPot sets the name and value of the honeypot field. On the wire the value is sent
// under the given field name.
func (p Params) WithHoneyPot(fieldName, fieldValue string) Params {
	return p.merge(map[string]string{FieldHoneypotName: fieldName, FieldHoneypotValue: fieldValue})
}

// WithUserRole sets the role of the comment author, "administrator" is never classified as spam
func (p Params) WithUserRole(role string) Params {
	return p.merge(map[string]string{FieldUserRole: role})
}

// WithRecheckReason sets the reason of a repeated check, i.e. "edit"
func (p Params) WithRecheckReason(reason string) Params {
	return p.merge(map[string]string{FieldRecheckReason: reason})
}

// WebsiteURL returns the website url or empty string if not set
func (p Params) WebsiteURL() string {
	return p.values[FieldBlog]
}

// Get returns the value of the parameter and true if it is set
func (p Params) Get(name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Values returns a copy of all stored parameters
func (p Params) Values() map[string]string {
	res := make(map[string]string, len(p.values))
	maps.Copy(res, p.values)
	return res
}

// IsValid checks that all required parameters are set.
// Returns false and the message about the first missing parameter otherwise.
func (p Params) IsValid() (ok bool, msg string) {
	if err := p.validate(); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// ParameterList returns parameters ready to be sent to the API. It fails if any of required parameters
// is missing. Honeypot value is moved under the honeypot field name.
func (p Params) ParameterList() (map[string]string, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	res := p.Values()
	name, hasName := res[FieldHoneypotName]
	value, hasValue := res[FieldHoneypotValue]
	if hasName && hasValue {
		delete(res, FieldHoneypotName)
		delete(res, FieldHoneypotValue)
		res[name] = value
	}
	return res, nil
}

// MarshalJSON encodes stored parameters as a json object
func (p Params) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Values())
}

// UnmarshalJSON decodes a json object with parameters. Strings and integers are accepted as values,
// nulls are skipped. Unknown parameter names are rejected.
func (p *Params) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("can't decode parameters: %w", err)
	}
	if raw == nil {
		return &ValidationError{Message: "parameters should be a json object"}
	}

	vals := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			vals[k] = val
		case json.Number:
			if _, err := val.Int64(); err != nil {
				return &ValidationError{Field: k, Message: fmt.Sprintf("parameter %q should be an integer, got %s", k, val)}
			}
			vals[k] = val.String()
		default:
			return &ValidationError{Field: k, Message: fmt.Sprintf("parameter %q has unsupported type %T", k, v)}
		}
	}

	res, err := NewParams(vals)
	if err != nil {
		return err
	}
	*p = res
	return nil
}

func (p Params) validate() error {
	for _, f := range requiredFields {
		if _, ok := p.values[f.name]; !ok {
			return &ValidationError{Field: f.name, Message: fmt.Sprintf("missing %q: %s", f.name, f.msg)}
		}
	}
	return nil
}

// merge returns a copy of Params with vals merged over. Keys of vals are always recognized names.
func (p Params) merge(vals map[string]string) Params {
	res := Params{values: make(map[string]string, len(p.values)+len(vals))}
	maps.Copy(res.values, p.values)
	maps.Copy(res.values, vals)
	return res
}

func (p *Params) set(name, value string) error {
	if _, ok := validFields[name]; !ok {
		return &ValidationError{Field: name, Message: fmt.Sprintf("the parameter %q is not a valid parameter name", name)}
	}
	p.values[name] = value
	return nil
}

// nonEmpty returns a copy of the map without empty values
func nonEmpty(vals map[string]string) map[string]string {
	res := make(map[string]string, len(vals))
	for k, v := range vals {
		if v != "" {
			res[k] = v
		}
	}
	return res
}

// checkURL verifies the value is an absolute url with scheme and host
func checkURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" || strings.ContainsAny(value, " \t\r\n") {
		return &ValidationError{Field: field, Message: fmt.Sprintf("expected %s to be a valid URL. Got: %q", field, value)}
	}
	return nil
}

func checkOptionalURL(field, value string) error {
	if value == "" {
		return nil
	}
	return checkURL(field, value)
}

// requestURL returns the full url of the incoming request
func requestURL(r *http.Request) string {
	if r.URL == nil || (!r.URL.IsAbs() && r.Host == "") {
		return ""
	}
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
