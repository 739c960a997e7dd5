package comics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"webtoonkit/lib/paginate"
	"webtoonkit/lib/restyutil"
)

func newNaverAdapter(t *testing.T, handler http.Handler) *naverAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &naverAdapter{http: restyutil.New(restyutil.Options{
		BaseURL: server.URL,
		Retry:   restyutil.RetryPolicy{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond},
	})}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNaverFetchMeta(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/article/list/info", r.URL.Path)
		require.Equal(t, "812354", r.URL.Query().Get("titleId"))
		writeJSON(t, w, map[string]any{
			"titleName": "밤의 기록",
			"communityArtists": []map[string]any{
				{"id": "artist-1", "name": "Kim"},
				{"id": "", "name": "Studio X"},
			},
			"synopsis":             "a night journal",
			"genreList":            []string{"thriller"},
			"thumbnailUrl":         "https://img.example/t.jpg",
			"posterThumbnailUrl":   "https://img.example/p.jpg",
			"finished":             false,
			"favoriteCount":        52_000,
			"viewCount":            9_100_000,
			"publishDayOfWeekList": []string{"TUESDAY", "FRIDAY"},
		})
	}))

	m, err := adapter.fetchMeta(context.Background(), 812354, KindOriginal)
	require.NoError(t, err)

	want := meta{
		Title: "밤의 기록",
		Creators: []Creator{
			{ID: "artist-1", Name: "Kim", HasProfile: true},
			{Name: "Studio X"},
		},
		Genres:      []string{"thriller"},
		Summary:     "a night journal",
		Views:       9_100_000,
		Subscribers: 52_000,
		Thumbnail:   "https://img.example/t.jpg",
		Banner:      "https://img.example/p.jpg",
		Schedule:    "TUESDAY, FRIDAY",
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestNaverFetchMetaFinished(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"titleName":            "done",
			"finished":             true,
			"publishDayOfWeekList": []string{"MONDAY"},
		})
	}))

	m, err := adapter.fetchMeta(context.Background(), 1, KindOriginal)
	require.NoError(t, err)
	require.True(t, m.Completed)
	require.Equal(t, "COMPLETED", m.Schedule)
}

func TestNaverFetchMetaMissingTitle(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"synopsis": "no title here"})
	}))

	_, err := adapter.fetchMeta(context.Background(), 1, KindOriginal)
	var parseError *ParseError
	require.ErrorAs(t, err, &parseError)
	require.Equal(t, "titleName", parseError.Field)
	require.Equal(t, PlatformNaver, parseError.Platform)
}

func TestNaverFetchMetaNotFound(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := adapter.fetchMeta(context.Background(), 1, KindOriginal)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNaverEpisodePageUpstreamFailure(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	w := &Webtoon{id: 1, kind: KindOriginal}
	_, err := adapter.episodePage(context.Background(), w, paginate.Token{})
	require.ErrorIs(t, err, ErrUpstream)
	var parseError *ParseError
	require.False(t, errors.As(err, &parseError), "a failing platform is not a layout change")
}

func naverArticlePage(pageNum, totalPages int, numbers []int) map[string]any {
	articles := make([]map[string]any, 0, len(numbers))
	for _, n := range numbers {
		articles = append(articles, map[string]any{
			"no":                     n,
			"subtitle":               "화 " + strconv.Itoa(n),
			"viewCount":              1000 * n,
			"serviceDateDescription": "24.06.03",
			"up":                     false,
			"charge":                 false,
		})
	}
	return map[string]any{
		"pageInfo":    map[string]any{"pageNum": pageNum, "totalPages": totalPages},
		"articleList": articles,
	}
}

func TestNaverEpisodesPaged(t *testing.T) {
	var requestedPages []string
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "ASC", r.URL.Query().Get("sort"))
		page := r.URL.Query().Get("page")
		requestedPages = append(requestedPages, page)
		switch page {
		case "1":
			// upstream order inside a page is not trusted
			writeJSON(t, w, naverArticlePage(1, 2, []int{2, 1, 3}))
		default:
			writeJSON(t, w, naverArticlePage(2, 2, []int{4, 5}))
		}
	}))

	w := &Webtoon{id: 812354, kind: KindOriginal}
	episodes, err := paginate.Collect(context.Background(), paginate.New(paginate.Token{},
		func(ctx context.Context, tok paginate.Token) (paginate.Page[Episode], error) {
			return adapter.episodePage(ctx, w, tok)
		}))
	require.NoError(t, err)

	require.Equal(t, []string{"1", "2"}, requestedPages)
	require.Len(t, episodes, 5)
	for i, ep := range episodes {
		require.Equal(t, i+1, ep.Number)
	}
	require.Equal(t, uint64(1000), episodes[0].Views)
	require.Equal(t, time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC), episodes[0].Published)
}

func TestNaverEpisodeWithoutNumber(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"pageInfo":    map[string]any{"pageNum": 1, "totalPages": 1},
			"articleList": []map[string]any{{"subtitle": "broken"}},
		})
	}))

	w := &Webtoon{id: 1, kind: KindOriginal}
	_, err := adapter.episodePage(context.Background(), w, paginate.Token{})
	var parseError *ParseError
	require.ErrorAs(t, err, &parseError)
	require.Equal(t, "articleList.no", parseError.Field)
}

func naverCommentPage(next string, comments []map[string]any) map[string]any {
	return map[string]any{
		"success":    true,
		"apiVersion": naverCommentAPIVersion,
		"result": map[string]any{
			"commentList": comments,
			"pagination":  map[string]any{"next": next},
		},
	}
}

func TestNaverPostsCursorPagination(t *testing.T) {
	var cursors []string
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/comments", r.URL.Path)
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		switch cursor {
		case "":
			writeJSON(t, w, naverCommentPage("cur-2", []map[string]any{
				{
					"commentNo":     "10001",
					"userIdNo":      "u-1",
					"userName":      "reader1",
					"contents":      "great episode",
					"sympathyCount": 40,
					"regTimeGmt":    "2024-05-01T09:30:00+0000",
					"replyCount":    3,
				},
				{"commentNo": "10002", "deleted": true},
			}))
		case "cur-2":
			writeJSON(t, w, naverCommentPage("", []map[string]any{
				{"commentNo": "10003", "userName": "reader3", "contents": "late"},
			}))
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	}))

	ep := Episode{webtoonID: 812354, Number: 7}
	posts, err := paginate.Collect(context.Background(), paginate.New(paginate.Token{},
		func(ctx context.Context, tok paginate.Token) (paginate.Page[Post], error) {
			return adapter.postPage(ctx, ep, tok)
		}))
	require.NoError(t, err)

	// the first request carries no cursor at all
	require.Equal(t, []string{"", "cur-2"}, cursors)
	require.Len(t, posts, 3)

	require.Equal(t, "10001", posts[0].ID)
	require.Equal(t, Poster{ID: "u-1", Name: "reader1"}, posts[0].Poster)
	require.Equal(t, 40, posts[0].Upvotes)
	require.Equal(t, 3, posts[0].ReplyCount)
	require.Equal(t,
		time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC),
		posts[0].CreatedAt.UTC(),
	)

	require.True(t, posts[1].Deleted)
	require.Equal(t, "10002", posts[1].ID)
	require.Equal(t, "", posts[1].Body)
}

func TestNaverRepliesUseParentComment(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "10001", r.URL.Query().Get("parentCommentNo"))
		writeJSON(t, w, naverCommentPage("", []map[string]any{
			{"commentNo": "20001", "userName": "replier", "contents": "agreed"},
		}))
	}))

	post := Post{webtoonID: 812354, episodeNo: 7, ID: "10001", ReplyCount: 1}
	page, err := adapter.replyPage(context.Background(), post, paginate.Token{})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	require.Equal(t, "agreed", page.Items[0].Body)
	require.True(t, page.Next.IsZero())
}

func TestNaverCommentSchemaVersionMismatch(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"success":    true,
			"apiVersion": 3,
			"result":     map[string]any{},
		})
	}))

	ep := Episode{webtoonID: 1, Number: 1}
	_, err := adapter.postPage(context.Background(), ep, paginate.Token{})
	var parseError *ParseError
	require.ErrorAs(t, err, &parseError)
	require.Equal(t, "apiVersion", parseError.Field)
}

func TestNaverCommentPlatformFailure(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"success":    false,
			"apiVersion": naverCommentAPIVersion,
		})
	}))

	ep := Episode{webtoonID: 1, Number: 1}
	_, err := adapter.postPage(context.Background(), ep, paginate.Token{})
	var parseError *ParseError
	require.ErrorAs(t, err, &parseError)
	require.Equal(t, "success", parseError.Field)
}

func TestNaverCreator(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		writeJSON(t, w, map[string]any{
			"success": true,
			"result": map[string]any{
				"id":             id,
				"nickname":       "Kim",
				"profileEnabled": id == "artist-1",
			},
		})
	}))

	open, err := adapter.fetchCreator(context.Background(), "artist-1")
	require.NoError(t, err)
	require.Equal(t, Creator{ID: "artist-1", Name: "Kim", HasProfile: true}, open)

	closed, err := adapter.fetchCreator(context.Background(), "artist-2")
	require.NoError(t, err)
	require.Equal(t, Creator{ID: "artist-2", Name: "Kim", HasProfile: false}, closed)
}

func TestNaverViewer(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"success": true,
			"result":  map[string]any{"id": "u-77", "nickname": "night owl", "creator": true},
		})
	}))

	viewer, err := adapter.fetchViewer(context.Background())
	require.NoError(t, err)
	require.Equal(t, Viewer{ID: "u-77", Nickname: "night owl", Creator: true}, viewer)
}

func TestNaverViewerRejectedSession(t *testing.T) {
	adapter := newNaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := adapter.fetchViewer(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)
}
