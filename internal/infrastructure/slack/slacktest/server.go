// Package slacktest provides an in-process fake of the Slack Web API methods
// used by the bridge (conversations.replies, chat.postMessage, auth.test).
package slacktest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BotID is the bot_id attached to messages posted through the fake.
const BotID = "B0FAKEBOT"

// Message is a message stored by the fake.
type Message struct {
	Channel  string `json:"channel,omitempty"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
	Text     string `json:"text"`
	User     string `json:"user,omitempty"`
	BotID    string `json:"bot_id,omitempty"`
}

type response struct {
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	Channel  string    `json:"channel,omitempty"`
	TS       string    `json:"ts,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	Messages []Message `json:"messages,omitempty"`
	HasMore  bool      `json:"has_more,omitempty"`
	Metadata *metadata `json:"response_metadata,omitempty"`
}

type metadata struct {
	NextCursor string `json:"next_cursor"`
}

// Server is a fake Slack Web API.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	threads   map[string][]Message // keyed by channel + "/" + thread ts
	posted    []Message
	failures  map[string]string // method -> slack error code
	pageSize  int
	nextTS    int64
	pageCalls int
}

// NewServer starts a fake Slack API. Close it when done.
func NewServer() *Server {
	s := &Server{
		threads:  make(map[string][]Message),
		failures: make(map[string]string),
		pageSize: 100,
		nextTS:   time.Now().Unix(),
	}
	s.Server = httptest.NewServer(s)
	return s
}

// APIURL returns the base URL to pass to slack.OptionAPIURL.
func (s *Server) APIURL() string {
	return s.URL + "/api/"
}

// AddThreadMessage stores msg as part of the thread rooted at threadTS.
func (s *Server) AddThreadMessage(channel, threadTS string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.Channel = channel
	if msg.TS != threadTS {
		msg.ThreadTS = threadTS
	}
	key := threadKey(channel, threadTS)
	s.threads[key] = append(s.threads[key], msg)
}

// Posted returns the messages posted through chat.postMessage.
func (s *Server) Posted() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.posted...)
}

// FailMethod makes the named API method return the given Slack error code.
func (s *Server) FailMethod(method, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = code
}

// SetPageSize sets the maximum number of messages per conversations.replies page.
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// RepliesCalls returns how many conversations.replies pages were served.
func (s *Server) RepliesCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageCalls
}

// ServeHTTP implements the http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	method, ok := strings.CutPrefix(r.URL.Path, "/api/")
	if !ok || method == "" {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	code, fail := s.failures[method]
	s.mu.Unlock()
	if fail {
		json.NewEncoder(w).Encode(response{OK: false, Error: code})
		return
	}

	switch method {
	case "chat.postMessage":
		s.handlePostMessage(w, r)
	case "conversations.replies":
		s.handleReplies(w, r)
	case "auth.test":
		json.NewEncoder(w).Encode(response{OK: true, UserID: "U0FAKEBOT"})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	channel := r.FormValue("channel")
	if channel == "" {
		json.NewEncoder(w).Encode(response{OK: false, Error: "channel_not_found"})
		return
	}

	s.mu.Lock()
	s.nextTS++
	msg := Message{
		Channel:  channel,
		TS:       fmt.Sprintf("%d.%06d", s.nextTS, 0),
		ThreadTS: r.FormValue("thread_ts"),
		Text:     r.FormValue("text"),
		BotID:    BotID,
	}
	s.posted = append(s.posted, msg)
	if msg.ThreadTS != "" {
		key := threadKey(channel, msg.ThreadTS)
		s.threads[key] = append(s.threads[key], msg)
	}
	s.mu.Unlock()

	json.NewEncoder(w).Encode(response{OK: true, Channel: channel, TS: msg.TS})
}

func (s *Server) handleReplies(w http.ResponseWriter, r *http.Request) {
	channel := r.FormValue("channel")
	ts := r.FormValue("ts")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageCalls++

	thread, ok := s.threads[threadKey(channel, ts)]
	if !ok {
		json.NewEncoder(w).Encode(response{OK: false, Error: "thread_not_found"})
		return
	}

	sorted := append([]Message(nil), thread...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TS < sorted[j].TS })

	offset, _ := strconv.Atoi(r.FormValue("cursor"))
	end := min(offset+s.pageSize, len(sorted))
	if offset > end {
		offset = end
	}

	resp := response{OK: true, Messages: sorted[offset:end]}
	if end < len(sorted) {
		resp.HasMore = true
		resp.Metadata = &metadata{NextCursor: strconv.Itoa(end)}
	}

	json.NewEncoder(w).Encode(resp)
}

func threadKey(channel, ts string) string {
	return channel + "/" + ts
}
