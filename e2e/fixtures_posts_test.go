//go:build e2e && unix

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
)

type post struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

var fixturePosts = []post{
	{UserID: 1, ID: 1, Title: "sunt aut facere repellat", Body: "quia et suscipit recusandae"},
	{UserID: 1, ID: 2, Title: "qui est esse", Body: "est rerum tempore vitae"},
	{UserID: 1, ID: 3, Title: "ea molestias quasi exercitationem", Body: "et iusto sed quo iure"},
	{UserID: 2, ID: 4, Title: "eum et est occaecati", Body: "ullam et saepe reiciendis"},
	{UserID: 2, ID: 5, Title: "nesciunt quas odio", Body: "repudiandae veniam quaerat"},
}

// postsServer serves fixturePosts and can be switched into failing
type postsServer struct {
	srv      *httptest.Server
	failing  atomic.Bool
	requests atomic.Int32
}

// ServePosts starts the posts endpoint the app is pointed at
func (tf *TUITestFramework) ServePosts() *postsServer {
	ps := &postsServer{}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.requests.Add(1)
		if ps.failing.Load() {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fixturePosts)
	}))
	tf.server = ps
	return ps
}

func (ps *postsServer) URL() string { return ps.srv.URL + "/posts" }

func (ps *postsServer) SetFailing(v bool) { ps.failing.Store(v) }

func (ps *postsServer) Requests() int { return int(ps.requests.Load()) }

func (ps *postsServer) Close() { ps.srv.Close() }
