package akismet

import (
	"encoding/json"
	"fmt"
)

// Result is a verdict of the comment check with parameters used for the check
type Result struct {
	params Params
	spam   bool
}

// resultJSON is the serialized form of Result
type resultJSON struct {
	IsSpam     bool   `json:"isSpam"`
	Parameters Params `json:"parameters"`
}

// NewResult makes a new Result
func NewResult(params Params, spam bool) Result {
	return Result{params: params, spam: spam}
}

// ParseResult decodes Result from its json form, see Result.MarshalJSON
func ParseResult(data []byte) (Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// IsSpam returns true if the comment was classified as spam
func (r Result) IsSpam() bool { return r.spam }

// Params returns parameters sent to the API
func (r Result) Params() Params { return r.params }

func (r Result) String() string {
	spamOrHam := "ham"
	if r.spam {
		spamOrHam = "spam"
	}
	return fmt.Sprintf("%s, ip:%s, type:%s", spamOrHam, r.params.values[FieldUserIP], r.params.values[FieldCommentType])
}

// MarshalJSON encodes Result as {"isSpam": bool, "parameters": {...}}
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{IsSpam: r.spam, Parameters: r.params})
}

// UnmarshalJSON decodes Result. Both isSpam and parameters keys are required.
func (r *Result) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("can't decode result: %w", err)
	}

	spamRaw, ok := raw["isSpam"]
	if !ok {
		return fmt.Errorf("can't decode result: %q key is missing", "isSpam")
	}
	paramsRaw, ok := raw["parameters"]
	if !ok {
		return fmt.Errorf("can't decode result: %q key is missing", "parameters")
	}

	var spam bool
	if err := json.Unmarshal(spamRaw, &spam); err != nil || string(spamRaw) == "null" {
		return fmt.Errorf("can't decode result: isSpam should be a boolean, got %s", spamRaw)
	}
	var params Params
	if err := json.Unmarshal(paramsRaw, &params); err != nil {
		return fmt.Errorf("can't decode result parameters: %w", err)
	}

	*r = Result{params: params, spam: spam}
	return nil
}
