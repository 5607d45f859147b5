package media

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Corphon/VisualMediaTool/internal/models"
)

const (
	PixabayName    = "Pixabay"
	pixabayBaseURL = "https://pixabay.com"
	pixabayLicense = "Pixabay License (see site)"

	// Pixabay rejects per_page outside [3, 200].
	pixabayMinPage = 3
	pixabayMaxPage = 200
)

// Pixabay searches photos and videos on pixabay.com.
type Pixabay struct {
	client
}

// NewPixabay returns a Pixabay client; an empty key leaves it disabled.
func NewPixabay(apiKey string, opts ...Option) *Pixabay {
	return &Pixabay{client: newClient(PixabayName, apiKey, pixabayBaseURL, opts)}
}

type pixabayVideoFile struct {
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Thumbnail string `json:"thumbnail"`
}

type pixabayResponse struct {
	Hits []struct {
		ID           int64  `json:"id"`
		PageURL      string `json:"pageURL"`
		Tags         string `json:"tags"`
		PreviewURL   string `json:"previewURL"`
		WebformatURL string `json:"webformatURL"`
		User         string `json:"user"`
		Duration     int    `json:"duration"`
		Videos       struct {
			Large  pixabayVideoFile `json:"large"`
			Medium pixabayVideoFile `json:"medium"`
			Small  pixabayVideoFile `json:"small"`
			Tiny   pixabayVideoFile `json:"tiny"`
		} `json:"videos"`
	} `json:"hits"`
}

func clampPixabayPage(limit int) int {
	if limit < pixabayMinPage {
		return pixabayMinPage
	}
	if limit > pixabayMaxPage {
		return pixabayMaxPage
	}
	return limit
}

func (p *Pixabay) Search(ctx context.Context, query string, limit int, kind models.MediaKind) ([]models.MediaResult, error) {
	if !p.Enabled() {
		return []models.MediaResult{}, nil
	}
	limit = normalizeLimit(limit)

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(clampPixabayPage(limit)))

	path := "/api/"
	if kind == models.MediaVideo {
		path = "/api/videos/"
	} else {
		params.Set("image_type", "photo")
	}

	var data pixabayResponse
	if err := p.getJSON(ctx, path, params, nil, &data); err != nil {
		return nil, err
	}

	out := make([]models.MediaResult, 0, len(data.Hits))
	for _, h := range data.Hits {
		if len(out) == limit {
			break
		}
		id := strconv.FormatInt(h.ID, 10)
		r := models.MediaResult{
			Provider: PixabayName,
			Query:    query,
			Title:    firstNonEmpty(h.Tags, fmt.Sprintf("Pixabay %s", id)),
			URL:      h.PageURL,
			Thumb:    firstNonEmpty(h.PreviewURL, h.WebformatURL),
			Author:   h.User,
			License:  pixabayLicense,
			ID:       id,
		}
		if kind == models.MediaVideo {
			r.Thumb = firstNonEmpty(h.Videos.Tiny.Thumbnail, h.Videos.Medium.Thumbnail)
			r.Duration = h.Duration
			r.Files = pixabayFiles(h.Videos.Large, h.Videos.Medium, h.Videos.Small, h.Videos.Tiny)
		}
		out = append(out, r)
	}
	return out, nil
}

func pixabayFiles(large, medium, small, tiny pixabayVideoFile) []models.MediaFile {
	files := []models.MediaFile{}
	for _, f := range []struct {
		quality string
		file    pixabayVideoFile
	}{
		{"large", large}, {"medium", medium}, {"small", small}, {"tiny", tiny},
	} {
		if f.file.URL == "" {
			continue
		}
		files = append(files, models.MediaFile{
			Quality:  f.quality,
			Width:    f.file.Width,
			Height:   f.file.Height,
			Link:     f.file.URL,
			FileType: "video/mp4",
		})
	}
	return files
}
