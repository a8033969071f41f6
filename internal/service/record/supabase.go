package record

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zhouzirui/z-reception/backend/internal/config"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
)

const supabaseTimeout = 15 * time.Second

// Supabase inserts rows through the PostgREST endpoint of a Supabase project.
type Supabase struct {
	endpoint string
	key      string
	client   *http.Client
}

type row struct {
	Name   string `json:"patient_name"`
	Age    int    `json:"patient_age"`
	Reason string `json:"patient_query"`
	Ward   string `json:"ward"`
}

func toRow(rec intake.Record) row {
	return row{Name: rec.Name, Age: rec.Age, Reason: rec.Reason, Ward: rec.Ward()}
}

// NewSupabase 创建 Supabase REST 写入器，client 为空时使用默认超时。
func NewSupabase(baseURL, key, table string, client *http.Client) (*Supabase, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || key == "" {
		return nil, errors.New("supabase url and key are required")
	}
	if table == "" {
		return nil, errors.New("supabase table is required")
	}
	if client == nil {
		client = &http.Client{Timeout: supabaseTimeout}
	}
	return &Supabase{
		endpoint: baseURL + "/rest/v1/" + url.PathEscape(table),
		key:      key,
		client:   client,
	}, nil
}

// Save inserts rec and returns the id of the created row.
func (s *Supabase) Save(ctx context.Context, rec intake.Record) (string, error) {
	body, err := json.Marshal([]row{toRow(rec)})
	if err != nil {
		return "", fmt.Errorf("encode row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("insert row: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("insert row: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	id, ok := rows[0]["id"]
	if !ok || id == nil {
		return "", nil
	}
	return fmt.Sprint(id), nil
}

func (s *Supabase) Kind() string { return config.SinkSupabase }

func (s *Supabase) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
