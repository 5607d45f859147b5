package media

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Corphon/VisualMediaTool/internal/models"
)

const (
	PexelsName    = "Pexels"
	pexelsBaseURL = "https://api.pexels.com"
	pexelsLicense = "Free to use (see Pexels license)"
	pexelsMaxPage = 80
)

// Pexels searches photos and videos on pexels.com.
type Pexels struct {
	client
}

// NewPexels returns a Pexels client; an empty key leaves it disabled.
func NewPexels(apiKey string, opts ...Option) *Pexels {
	return &Pexels{client: newClient(PexelsName, apiKey, pexelsBaseURL, opts)}
}

type pexelsPhotos struct {
	Photos []struct {
		ID           int64  `json:"id"`
		URL          string `json:"url"`
		Alt          string `json:"alt"`
		Photographer string `json:"photographer"`
		Src          struct {
			Medium string `json:"medium"`
			Small  string `json:"small"`
		} `json:"src"`
	} `json:"photos"`
}

type pexelsVideos struct {
	Videos []struct {
		ID       int64  `json:"id"`
		URL      string `json:"url"`
		Image    string `json:"image"`
		Duration int    `json:"duration"`
		User     struct {
			Name string `json:"name"`
		} `json:"user"`
		VideoFiles []struct {
			Quality  string `json:"quality"`
			Width    int    `json:"width"`
			Height   int    `json:"height"`
			Link     string `json:"link"`
			FileType string `json:"file_type"`
		} `json:"video_files"`
	} `json:"videos"`
}

func (p *Pexels) Search(ctx context.Context, query string, limit int, kind models.MediaKind) ([]models.MediaResult, error) {
	if !p.Enabled() {
		return []models.MediaResult{}, nil
	}
	limit = normalizeLimit(limit)
	if limit > pexelsMaxPage {
		limit = pexelsMaxPage
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(limit))
	headers := map[string]string{"Authorization": p.apiKey}

	if kind == models.MediaVideo {
		return p.searchVideos(ctx, query, params, headers)
	}

	var data pexelsPhotos
	if err := p.getJSON(ctx, "/v1/search", params, headers, &data); err != nil {
		return nil, err
	}

	out := make([]models.MediaResult, 0, len(data.Photos))
	for _, ph := range data.Photos {
		id := strconv.FormatInt(ph.ID, 10)
		out = append(out, models.MediaResult{
			Provider: PexelsName,
			Query:    query,
			Title:    firstNonEmpty(ph.Alt, fmt.Sprintf("Pexels %s", id)),
			URL:      ph.URL,
			Thumb:    firstNonEmpty(ph.Src.Medium, ph.Src.Small),
			Author:   ph.Photographer,
			License:  pexelsLicense,
			ID:       id,
		})
	}
	return out, nil
}

func (p *Pexels) searchVideos(ctx context.Context, query string, params url.Values, headers map[string]string) ([]models.MediaResult, error) {
	var data pexelsVideos
	if err := p.getJSON(ctx, "/videos/search", params, headers, &data); err != nil {
		return nil, err
	}

	out := make([]models.MediaResult, 0, len(data.Videos))
	for _, v := range data.Videos {
		id := strconv.FormatInt(v.ID, 10)
		files := make([]models.MediaFile, 0, len(v.VideoFiles))
		for _, f := range v.VideoFiles {
			files = append(files, models.MediaFile{
				Quality:  f.Quality,
				Width:    f.Width,
				Height:   f.Height,
				Link:     f.Link,
				FileType: f.FileType,
			})
		}
		out = append(out, models.MediaResult{
			Provider: PexelsName,
			Query:    query,
			Title:    fmt.Sprintf("Pexels %s", id),
			URL:      v.URL,
			Thumb:    v.Image,
			Author:   v.User.Name,
			License:  pexelsLicense,
			ID:       id,
			Duration: v.Duration,
			Files:    files,
		})
	}
	return out, nil
}
