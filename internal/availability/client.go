// Package availability decides whether a book can be read, borrowed or
// previewed, using the Open Library edition catalog and the Internet Archive
// lending services.
package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ppiankov/borrowbot/internal/model"
)

// JSONGetter is the HTTP capability the client needs. The status code is
// reported even alongside an error.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, v any) (int, error)
}

// Client wraps the three catalog endpoints
type Client struct {
	http           JSONGetter
	openLibraryURL string
	archiveURL     string
	searchRows     int
}

// NewClient creates an Open Library catalog client. searchRows bounds the
// work search.
func NewClient(getter JSONGetter, openLibraryURL, archiveURL string, searchRows int) *Client {
	if searchRows <= 0 {
		searchRows = 50
	}
	return &Client{
		http:           getter,
		openLibraryURL: strings.TrimRight(openLibraryURL, "/"),
		archiveURL:     strings.TrimRight(archiveURL, "/"),
		searchRows:     searchRows,
	}
}

// GetEdition fetches the edition record. A missing record returns (nil, nil).
func (c *Client) GetEdition(ctx context.Context, isbn string) (*model.Edition, error) {
	endpoint := fmt.Sprintf("%s/isbn/%s.json", c.openLibraryURL, url.PathEscape(isbn))

	var raw map[string]json.RawMessage
	status, err := c.http.GetJSON(ctx, endpoint, &raw)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	edition := &model.Edition{ISBN: isbn}
	if v, ok := raw["ocaid"]; ok {
		if err := json.Unmarshal(v, &edition.OCAID); err != nil {
			return nil, fmt.Errorf("decode ocaid: %w", err)
		}
	}
	if v, ok := raw["works"]; ok {
		if err := json.Unmarshal(v, &edition.Works); err != nil {
			return nil, fmt.Errorf("decode works: %w", err)
		}
	}
	return edition, nil
}

type availabilityResponse struct {
	LendingStatus *model.LendingStatus `json:"lending_status"`
}

// GetAvailability fetches the lending status for an Internet Archive identifier.
// A response without a lending_status returns (nil, nil).
func (c *Client) GetAvailability(ctx context.Context, identifier string) (*model.LendingStatus, error) {
	params := url.Values{}
	params.Set("action", "availability")
	params.Set("identifier", identifier)
	endpoint := c.archiveURL + "/services/loans/loan/?" + params.Encode()

	var resp availabilityResponse
	if _, err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.LendingStatus, nil
}

// SearchDoc is one advanced-search hit
type SearchDoc struct {
	Identifier      string   `json:"identifier"`
	OpenLibraryWork workList `json:"openlibrary_work"`
}

type searchResponse struct {
	Response struct {
		Docs []SearchDoc `json:"docs"`
	} `json:"response"`
}

// FindAvailableWork searches for any lendable, readable or print-disabled
// scan of the work and returns the work id of the first hit carrying one.
func (c *Client) FindAvailableWork(ctx context.Context, workID string) (string, error) {
	query := "openlibrary_work:" + workID + " AND (" +
		"lending___is_lendable:true OR " +
		"lending___is_readable:true OR " +
		"lending___is_printdisabled:true)"

	params := url.Values{}
	params.Set("q", query)
	params.Add("fl[]", "identifier")
	params.Add("fl[]", "openlibrary_work")
	params.Add("fl[]", "lending___is_lendable")
	params.Add("fl[]", "lending___is_readable")
	params.Add("fl[]", "lending___is_printdisabled")
	params.Set("rows", strconv.Itoa(c.searchRows))
	params.Set("page", "1")
	params.Set("output", "json")
	endpoint := c.archiveURL + "/advancedsearch.php?" + params.Encode()

	var resp searchResponse
	if _, err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return "", err
	}

	for _, doc := range resp.Response.Docs {
		if work := doc.OpenLibraryWork.First(); work != "" {
			return work, nil
		}
	}
	return "", nil
}

// workList accepts the search field as either a string or a list of strings
type workList []string

func (w *workList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*w = workList{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*w = many
	return nil
}

func (w workList) First() string {
	for _, v := range w {
		if v != "" {
			return v
		}
	}
	return ""
}
