package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okian/internboard/internal/domain/model"
)

// internList accepts a bare array or an object wrapping one.
type internList []model.Intern

func (l *internList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]model.Intern)(l))
	}
	var wrapped struct {
		Interns []model.Intern `json:"interns"`
		Data    []model.Intern `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.Interns != nil {
		*l = wrapped.Interns
	} else {
		*l = wrapped.Data
	}
	return nil
}

// internOne accepts a bare object or {"intern": {...}}.
type internOne model.Intern

func (o *internOne) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Intern *model.Intern `json:"intern"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Intern != nil {
		*o = internOne(*wrapped.Intern)
		return nil
	}
	return json.Unmarshal(data, (*model.Intern)(o))
}

func internPath(id string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}
	return "/interns/" + url.PathEscape(id), nil
}

// ListInterns fetches the full roster.
func (c *Client) ListInterns(ctx context.Context) ([]model.Intern, error) {
	var out internList
	if err := c.do(ctx, "list_interns", http.MethodGet, "/interns", nil, &out, true); err != nil {
		return nil, err
	}
	if out == nil {
		return []model.Intern{}, nil
	}
	return out, nil
}

// GetIntern fetches one intern.
func (c *Client) GetIntern(ctx context.Context, id string) (model.Intern, error) {
	path, err := internPath(id)
	if err != nil {
		return model.Intern{}, fmt.Errorf("get_intern: %w", err)
	}
	var out internOne
	if err := c.do(ctx, "get_intern", http.MethodGet, path, nil, &out, true); err != nil {
		return model.Intern{}, err
	}
	return model.Intern(out), nil
}

// CreateIntern creates an intern and returns the stored record.
func (c *Client) CreateIntern(ctx context.Context, in model.InternInput) (model.Intern, error) {
	var out internOne
	if err := c.do(ctx, "create_intern", http.MethodPost, "/interns", in, &out, true); err != nil {
		return model.Intern{}, err
	}
	return model.Intern(out), nil
}

// UpdateIntern replaces the editable fields of an intern.
func (c *Client) UpdateIntern(ctx context.Context, id string, in model.InternInput) (model.Intern, error) {
	path, err := internPath(id)
	if err != nil {
		return model.Intern{}, fmt.Errorf("update_intern: %w", err)
	}
	var out internOne
	if err := c.do(ctx, "update_intern", http.MethodPut, path, in, &out, true); err != nil {
		return model.Intern{}, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return model.Intern(out), nil
}

// DeleteIntern removes an intern.
func (c *Client) DeleteIntern(ctx context.Context, id string) error {
	path, err := internPath(id)
	if err != nil {
		return fmt.Errorf("delete_intern: %w", err)
	}
	return c.do(ctx, "delete_intern", http.MethodDelete, path, nil, nil, true)
}
