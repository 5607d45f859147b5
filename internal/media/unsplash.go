package media

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Corphon/VisualMediaTool/internal/models"
)

const (
	UnsplashName    = "Unsplash"
	unsplashBaseURL = "https://api.unsplash.com"
	unsplashLicense = "Unsplash License (attribution required)"
	unsplashMaxPage = 30
)

// Unsplash searches photos on unsplash.com. It has no video catalogue.
type Unsplash struct {
	client
}

// NewUnsplash returns an Unsplash client; an empty access key leaves it disabled.
func NewUnsplash(accessKey string, opts ...Option) *Unsplash {
	return &Unsplash{client: newClient(UnsplashName, accessKey, unsplashBaseURL, opts)}
}

type unsplashResponse struct {
	Results []struct {
		ID             string `json:"id"`
		AltDescription string `json:"alt_description"`
		Description    string `json:"description"`
		URLs           struct {
			Small string `json:"small"`
			Thumb string `json:"thumb"`
		} `json:"urls"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

func (u *Unsplash) Search(ctx context.Context, query string, limit int, kind models.MediaKind) ([]models.MediaResult, error) {
	if !u.Enabled() || kind == models.MediaVideo {
		return []models.MediaResult{}, nil
	}
	limit = normalizeLimit(limit)
	if limit > unsplashMaxPage {
		limit = unsplashMaxPage
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(limit))
	headers := map[string]string{"Authorization": "Client-ID " + u.apiKey}

	var data unsplashResponse
	if err := u.getJSON(ctx, "/search/photos", params, headers, &data); err != nil {
		return nil, err
	}

	out := make([]models.MediaResult, 0, len(data.Results))
	for _, it := range data.Results {
		out = append(out, models.MediaResult{
			Provider: UnsplashName,
			Query:    query,
			Title:    firstNonEmpty(it.AltDescription, it.Description, fmt.Sprintf("Unsplash %s", it.ID)),
			URL:      it.Links.HTML,
			Thumb:    firstNonEmpty(it.URLs.Small, it.URLs.Thumb),
			Author:   it.User.Name,
			License:  unsplashLicense,
			ID:       it.ID,
		})
	}
	return out, nil
}
