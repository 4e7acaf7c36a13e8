package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/alexis077/bookshelf/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// example API call
// https://www.googleapis.com/books/v1/volumes?q=dune&key=API_KEY

const (
	DefaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

	oneHour           = 60 * 60
	volumeCacheExpire = oneHour * 24
)

var ErrVolumeNotFound = errors.New("volume not found")

type Api struct {
	cache      *freecache.Cache
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewApi(baseURL, apiKey string, httpClient *http.Client) *Api {
	megabyte := 1024 * 1024
	cacheSize := 10 * megabyte

	return &Api{
		cache:      freecache.NewCache(cacheSize),
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Search queries the external catalog. Lookup failures are logged and
// reported as empty results, so a flaky upstream never breaks the
// search endpoint.
func (a *Api) Search(ctx context.Context, query string) []CatalogBook {
	ctx, span := tracing.GlobalTracer.Start(ctx, "googleBooksApi.search")
	defer span.End()
	span.SetAttributes(attribute.String("search.query", query))

	cacheKey := fmt.Sprintf("search::%s", query)
	volumesResp := &volumesResponse{}
	if cachedBytes, err := a.cache.Get([]byte(cacheKey)); err == nil {
		log.Tracef("found search results for [%s] in cache", query)
		if err = json.Unmarshal(cachedBytes, volumesResp); err == nil {
			span.SetAttributes(attribute.Bool("search.from-cache", true))
			return mapVolumes(volumesResp.Items)
		}
		log.Errorf("failed to unmarshal cached search results for [%s]: %s", query, err)
	}

	searchURL := fmt.Sprintf("%s?q=%s&key=%s", a.baseURL, url.QueryEscape(query), a.apiKey)
	respBytes, err := a.getJSON(ctx, searchURL)
	if err != nil {
		log.Errorf("search books from external catalog [%s]: %s", query, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "search-failed")
		return nil
	}

	if err := json.Unmarshal(respBytes, volumesResp); err != nil {
		log.Errorf("failed to unmarshal catalog search response for [%s]: %s", query, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unmarshal-failed")
		return nil
	}

	if err := a.cache.Set([]byte(cacheKey), respBytes, volumeCacheExpire); err != nil {
		log.Errorf("failed to cache search results for [%s]: %s", query, err)
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("found %d volumes", len(volumesResp.Items)))
	return mapVolumes(volumesResp.Items)
}

// GetVolume fetches a single volume by its external catalog id.
func (a *Api) GetVolume(ctx context.Context, id string) (*CatalogBook, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "googleBooksApi.getVolume")
	defer span.End()
	span.SetAttributes(attribute.String("volume.id", id))

	cacheKey := fmt.Sprintf("volume::%s", id)
	vol := &volume{}
	if cachedBytes, err := a.cache.Get([]byte(cacheKey)); err == nil {
		log.Tracef("found volume [%s] in cache", id)
		if err = json.Unmarshal(cachedBytes, vol); err == nil {
			span.SetAttributes(attribute.Bool("volume.from-cache", true))
			book := mapVolume(*vol)
			return &book, nil
		}
		log.Errorf("failed to unmarshal cached volume [%s]: %s", id, err)
	}

	volumeURL := fmt.Sprintf("%s/%s?key=%s", a.baseURL, url.PathEscape(id), a.apiKey)
	respBytes, err := a.getJSON(ctx, volumeURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get-volume-failed")
		return nil, err
	}

	if err := json.Unmarshal(respBytes, vol); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unmarshal-failed")
		return nil, fmt.Errorf("unmarshal catalog volume response: %w", err)
	}
	if vol.ID == "" {
		span.SetStatus(codes.Error, "volume-not-found")
		return nil, ErrVolumeNotFound
	}

	if err := a.cache.Set([]byte(cacheKey), respBytes, volumeCacheExpire); err != nil {
		log.Errorf("failed to cache volume [%s]: %s", id, err)
	}

	span.SetStatus(codes.Ok, "ok")
	book := mapVolume(*vol)
	return &book, nil
}

func (a *Api) getJSON(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrVolumeNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected catalog response status: %s", resp.Status)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response bytes: %w", err)
	}

	return respBytes, nil
}

func mapVolumes(items []volume) []CatalogBook {
	var catalogBooks []CatalogBook
	for _, item := range items {
		catalogBooks = append(catalogBooks, mapVolume(item))
	}
	return catalogBooks
}

func mapVolume(item volume) CatalogBook {
	info := item.VolumeInfo

	author := "Unknown"
	if len(info.Authors) > 0 {
		author = info.Authors[0]
		for _, a := range info.Authors[1:] {
			author += ", " + a
		}
	}

	// prefer ISBN-13, fall back to ISBN-10
	var isbn string
	for _, identifier := range info.IndustryIdentifiers {
		if identifier.Type == "ISBN_13" {
			isbn = identifier.Identifier
			break
		}
		if identifier.Type == "ISBN_10" && isbn == "" {
			isbn = identifier.Identifier
		}
	}

	imageURL := info.ImageLinks.Thumbnail
	if imageURL == "" {
		imageURL = info.ImageLinks.SmallThumbnail
	}

	return CatalogBook{
		Title:         info.Title,
		Subtitle:      info.Subtitle,
		Author:        author,
		Description:   info.Description,
		PublishedDate: info.PublishedDate,
		Publisher:     info.Publisher,
		ISBN:          isbn,
		PageCount:     info.PageCount,
		ImageURL:      imageURL,
		GoogleBooksID: item.ID,
	}
}
