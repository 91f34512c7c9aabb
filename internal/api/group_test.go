package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Mess1Ass/AidoruSite/internal/model"
)

func TestGroupByName(t *testing.T) {
	t.Parallel()

	t.Run("decodes the profile", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.EscapedPath() != "/group/name/%E7%A0%94%E7%A9%B6%E7%94%9F/" {
				t.Errorf("path = %q", r.URL.EscapedPath())
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"_id":"g1","name":"研究生","englishName":"Trainees","tags":["48系"]}`))
		})

		g, err := c.GroupByName(context.Background(), "研究生")
		if err != nil {
			t.Fatalf("GroupByName: %v", err)
		}
		if g.ID != "g1" || g.Name != "研究生" || g.EnglishName != "Trainees" {
			t.Errorf("group = %+v", g)
		}
	})

	t.Run("no data is an error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		if _, err := c.GroupByName(context.Background(), "ghost"); err == nil {
			t.Error("empty response accepted as a profile")
		}
	})
}

func TestUpdateGroup(t *testing.T) {
	t.Parallel()

	var gotBody model.Group
	var gotPath, gotCT string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	g := &model.Group{ID: "g1", Name: "研究生", Description: "updated bio"}
	if err := c.UpdateGroup(context.Background(), "g1", g); err != nil {
		t.Fatalf("UpdateGroup: %v", err)
	}
	if gotPath != "/group/update/g1/" {
		t.Errorf("path = %q", gotPath)
	}
	if gotCT != "application/json" {
		t.Errorf("content type = %q", gotCT)
	}
	if gotBody.Description != "updated bio" {
		t.Errorf("body = %+v", gotBody)
	}
}
