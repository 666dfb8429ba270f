package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/saveblush/reraw-feeds/models"
)

const maxBodySize = 64 * 1024

func feedType(r *http.Request) models.FeedType {
	return models.FeedType(chi.URLParam(r, "type"))
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s", errInvalidNumber, name)
	}

	return n, nil
}

func listParam(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}

	return out
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.ContentLength == 0 {
		return nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", errInvalidBody, err)
	}

	return nil
}

// handleItems current page of a feed, size trims the returned entities
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	t := feedType(r)
	size, err := intParam(r, "size")
	if err != nil {
		responseFeedError(w, err)
		return
	}

	items, err := s.feeds.Items(t)
	if err != nil {
		responseFeedError(w, err)
		return
	}
	state, err := s.feeds.State(t)
	if err != nil {
		responseFeedError(w, err)
		return
	}

	info := &models.PageInformation{Size: size, Count: len(items), HasMore: state.HasMore}
	for _, it := range items {
		if info.Oldest == 0 || int64(it.CreatedAt) < info.Oldest {
			info.Oldest = int64(it.CreatedAt)
		}
	}
	if size > 0 && len(items) > size {
		items = items[:size]
	}

	response(w, http.StatusOK, models.NewPage(info, &state, items))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.feeds.State(feedType(r))
	if err != nil {
		responseFeedError(w, err)
		return
	}

	response(w, http.StatusOK, &state)
}

// handleSubscribe params come from the json body, query values fill what the body left empty
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	p := models.FilterParams{}
	if err := decodeBody(r, &p); err != nil {
		responseFeedError(w, err)
		return
	}

	if len(p.Authors) == 0 {
		p.Authors = listParam(r, "authors")
	}
	if len(p.Hashtags) == 0 {
		p.Hashtags = listParam(r, "hashtags")
	}
	if p.Search == "" {
		p.Search = r.URL.Query().Get("search")
	}
	if p.Group == "" {
		p.Group = r.URL.Query().Get("group")
	}
	if p.Limit == 0 {
		limit, err := intParam(r, "limit")
		if err != nil {
			responseFeedError(w, err)
			return
		}
		p.Limit = limit
	}
	p.Force = r.URL.Query().Get("force") == "true"

	if err := s.feeds.Subscribe(s.ctx, feedType(r), p); err != nil {
		responseFeedError(w, err)
		return
	}

	s.handleState(w, r)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.feeds.Cancel(feedType(r)); err != nil {
		responseFeedError(w, err)
		return
	}

	s.handleState(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.feeds.Reset(feedType(r)); err != nil {
		responseFeedError(w, err)
		return
	}

	s.handleState(w, r)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.feeds.Retry(s.ctx, feedType(r)); err != nil {
		responseFeedError(w, err)
		return
	}

	s.handleState(w, r)
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		responseFeedError(w, err)
		return
	}

	if err := s.feeds.LoadMore(s.ctx, feedType(r), limit); err != nil {
		responseFeedError(w, err)
		return
	}

	s.handleState(w, r)
}

type filtersRequest struct {
	Hashtags []string `json:"hashtags"`
	Group    *string  `json:"group"`
}

// handleFilters local filters, applied without touching the upstream subscription
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	req := filtersRequest{}
	if err := decodeBody(r, &req); err != nil {
		responseFeedError(w, err)
		return
	}

	t := feedType(r)
	if err := s.feeds.SetHashtagFilter(t, req.Hashtags); err != nil {
		responseFeedError(w, err)
		return
	}
	if req.Group != nil {
		if err := s.feeds.SetGroupFilter(t, *req.Group); err != nil {
			responseFeedError(w, err)
			return
		}
	}

	s.handleItems(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.feeds.Delete(chi.URLParam(r, "id")); err != nil {
		responseFeedError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
