// Package media talks to the CMS media library over its REST API and
// orchestrates deduplicated, concurrent uploads of source image URLs.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"pedalhouse/internal/domain"
)

const listPageSize = 100

type Client struct {
	BaseURL     string
	Username    string
	AppPassword string
	HTTP        *http.Client
}

func NewClient(baseURL, username, appPassword string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Username:    username,
		AppPassword: appPassword,
		HTTP:        &http.Client{Timeout: 120 * time.Second},
	}
}

// Filename extracts the last path segment of a URL, ignoring the query
// string. This is the media dedup identity.
func Filename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		if i := strings.LastIndex(rawURL, "/"); i >= 0 {
			rawURL = rawURL[i+1:]
		}
		if i := strings.IndexByte(rawURL, '?'); i >= 0 {
			rawURL = rawURL[:i]
		}
		return rawURL
	}
	return path.Base(u.Path)
}

type wpMedia struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.Username, c.AppPassword)
	return req, nil
}

// ListMedia fetches the complete remote media index, 100 items per page,
// until a short page or a 4xx (the CMS answers 400 past the last page).
func (c *Client) ListMedia(ctx context.Context) ([]domain.MediaRecord, error) {
	var all []domain.MediaRecord
	for page := 1; ; page++ {
		u := fmt.Sprintf("%s/wp-json/wp/v2/media?per_page=%d&page=%d&_fields=id,source_url", c.BaseURL, listPageSize, page)
		req, err := c.newRequest(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, fmt.Errorf("list media page %d: %w", page, err)
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		resp.Body.Close()
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// No more pages.
			return all, nil
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("list media page %d: status %d", page, resp.StatusCode)
		}
		var items []wpMedia
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("list media page %d: decode: %w", page, err)
		}
		for _, m := range items {
			all = append(all, domain.MediaRecord{
				ID:        m.ID,
				SourceURL: m.SourceURL,
				PublicURL: m.SourceURL,
				Filename:  Filename(m.SourceURL),
			})
		}
		if len(items) < listPageSize {
			return all, nil
		}
	}
}

// Probe rejects a source URL unless it answers 2xx with an image content type.
func (c *Client) Probe(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe %s: status %d", rawURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("probe %s: not an image (%q)", rawURL, ct)
	}
	return nil
}

// Upload pulls the source bytes and pushes them to the media library as a raw
// binary upload. A positive folderID triggers a follow-up call assigning the
// media item to that folder.
func (c *Client) Upload(ctx context.Context, sourceURL string, folderID int64) (*domain.MediaRecord, error) {
	srcReq, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, err
	}
	srcResp, err := c.HTTP.Do(srcReq)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", sourceURL, err)
	}
	defer srcResp.Body.Close()
	if srcResp.StatusCode < 200 || srcResp.StatusCode > 299 {
		return nil, fmt.Errorf("download %s: status %d", sourceURL, srcResp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(srcResp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", sourceURL, err)
	}

	filename := Filename(sourceURL)
	req, err := c.newRequest(ctx, http.MethodPost, c.BaseURL+"/wp-json/wp/v2/media", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if ct := srcResp.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	} else {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upload %s: status %d: %s", filename, resp.StatusCode, string(raw))
	}
	var created wpMedia
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("upload %s: decode: %w", filename, err)
	}

	if folderID > 0 {
		if err := c.assignFolder(ctx, created.ID, folderID); err != nil {
			// Folder placement is cosmetic; the asset is already usable.
			return &domain.MediaRecord{ID: created.ID, SourceURL: sourceURL, Filename: filename, PublicURL: created.SourceURL}, nil
		}
	}
	return &domain.MediaRecord{ID: created.ID, SourceURL: sourceURL, Filename: filename, PublicURL: created.SourceURL}, nil
}

func (c *Client) assignFolder(ctx context.Context, mediaID, folderID int64) error {
	body, _ := json.Marshal(map[string]any{"happyfiles_category": []int64{folderID}})
	req, err := c.newRequest(ctx, http.MethodPost, c.BaseURL+"/wp-json/wp/v2/media/"+strconv.FormatInt(mediaID, 10), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("assign folder: status %d", resp.StatusCode)
	}
	return nil
}

type wpFolder struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ResolveFolder finds the media folder by name, creating it when absent.
// Called once at the start of a run; the id is threaded through the uploader.
func (c *Client) ResolveFolder(ctx context.Context, name string) (int64, error) {
	u := fmt.Sprintf("%s/wp-json/wp/v2/happyfiles_category?per_page=%d", c.BaseURL, listPageSize)
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("list folders: %w", err)
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("list folders: status %d", resp.StatusCode)
	}
	var folders []wpFolder
	if err := json.Unmarshal(raw, &folders); err != nil {
		return 0, fmt.Errorf("list folders: decode: %w", err)
	}
	for _, f := range folders {
		if strings.EqualFold(f.Name, name) {
			return f.ID, nil
		}
	}

	body, _ := json.Marshal(map[string]string{"name": name})
	req, err = c.newRequest(ctx, http.MethodPost, c.BaseURL+"/wp-json/wp/v2/happyfiles_category", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err = c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("create folder: %w", err)
	}
	defer resp.Body.Close()
	raw, _ = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("create folder: status %d", resp.StatusCode)
	}
	var created wpFolder
	if err := json.Unmarshal(raw, &created); err != nil {
		return 0, fmt.Errorf("create folder: decode: %w", err)
	}
	return created.ID, nil
}
