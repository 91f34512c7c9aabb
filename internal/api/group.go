package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Mess1Ass/AidoruSite/internal/model"
)

// GroupByName fetches a group profile by its display name.
func (c *Client) GroupByName(ctx context.Context, name string) (*model.Group, error) {
	body, err := c.get(ctx, "/group/name/"+url.PathEscape(name)+"/")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("group %q: backend returned no data", name)
	}

	var g model.Group
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, fmt.Errorf("decode group %q: %w", name, err)
	}
	return &g, nil
}

// UpdateGroup submits changed group profile fields.
func (c *Client) UpdateGroup(ctx context.Context, id string, g *model.Group) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/group/update/"+url.PathEscape(id)+"/", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}
