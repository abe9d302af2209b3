package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	httpclient "career-readiness/internal/common/http"
)

// FetchError carries a message fit for display next to a retry action.
// AssessmentType, AssessmentID and Tier are set when the fetcher knows them.
type FetchError struct {
	Message        string
	AssessmentType string
	AssessmentID   string
	Tier           string
	Err            error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPFetcher reads the results endpoint for one assessment.
type HTTPFetcher struct {
	BaseURL        string
	AssessmentType string
	AssessmentID   string
	Token          string
	Client         *http.Client
	Now            func() time.Time
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (Payload, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	endpoint := fmt.Sprintf("%s/api/assessment/%s/results/%s?_nocache=%s",
		strings.TrimSuffix(f.BaseURL, "/"),
		url.PathEscape(f.AssessmentType),
		url.PathEscape(f.AssessmentID),
		strconv.FormatInt(now().UnixMilli(), 10))

	opts := []httpclient.Option{}
	if f.Client != nil {
		opts = append(opts, httpclient.WithHTTPClient(f.Client))
	}
	if f.Token != "" {
		opts = append(opts, httpclient.WithHeader("Authorization", "Bearer "+f.Token))
	}
	client := httpclient.NewClient(30*time.Second, opts...)

	var p Payload
	err := client.DoJSON(ctx, http.MethodGet, endpoint, nil, &p)
	if err != nil {
		var se *httpclient.StatusError
		switch {
		case errors.As(err, &se) && se.StatusCode == http.StatusNotFound:
			return Payload{}, ErrNotFound
		case errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden):
			return Payload{}, f.fail("You are not allowed to view these results.", "", err)
		case errors.As(err, &se):
			if body := decodeFailure(se.Body); mentionsManualReview(body.Message) {
				return Payload{}, f.fail(body.Message, body.Tier, err)
			}
			return Payload{}, f.fail(fmt.Sprintf("The server returned an error (%d). Please try again.", se.StatusCode), "", err)
		case ctx.Err() != nil:
			return Payload{}, ctx.Err()
		case errors.Is(err, httpclient.ErrDecode):
			return Payload{}, f.fail("The server sent an unreadable response. Please try again.", "", err)
		default:
			return Payload{}, f.fail("Could not reach the server. Check your connection and try again.", "", err)
		}
	}
	if !p.Success {
		msg := p.Message
		if msg == "" {
			msg = "The results could not be loaded."
		}
		return Payload{}, f.fail(msg, p.Tier, nil)
	}
	if p.ID == "" {
		p.ID = f.AssessmentID
	}
	if p.AssessmentType == "" {
		p.AssessmentType = f.AssessmentType
	}
	return p, nil
}

func (f *HTTPFetcher) fail(msg, tier string, err error) *FetchError {
	return &FetchError{
		Message:        msg,
		AssessmentType: f.AssessmentType,
		AssessmentID:   f.AssessmentID,
		Tier:           tier,
		Err:            err,
	}
}

type failureBody struct {
	Message string `json:"message"`
	Tier    string `json:"tier"`
}

func decodeFailure(body string) failureBody {
	var b failureBody
	_ = json.Unmarshal([]byte(body), &b)
	return b
}
