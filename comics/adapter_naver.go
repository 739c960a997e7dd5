package comics

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"webtoonkit/lib/paginate"
	"webtoonkit/lib/restyutil"
)

// naverAdapter talks to the JSON platform. Episode listings are page
// numbered; comment threads paginate with an opaque continuation
// cursor which is passed back verbatim and never inspected.
type naverAdapter struct {
	http *restyutil.Client
}

// naverCommentAPIVersion is the comment envelope schema this adapter
// understands. The platform has shipped incompatible envelopes under
// the same path before, so anything else is a structural mismatch.
const naverCommentAPIVersion = 2

var naverTimeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

func parseNaverTime(s string) time.Time {
	for _, layout := range naverTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (a *naverAdapter) fetchMeta(ctx context.Context, id int, kind Kind) (meta, error) {
	const endpoint = "/api/article/list/info"

	var body struct {
		TitleName string `json:"titleName"`
		Writers   []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"communityArtists"`
		Synopsis      string   `json:"synopsis"`
		GenreList     []string `json:"genreList"`
		ThumbnailURL  string   `json:"thumbnailUrl"`
		PosterURL     string   `json:"posterThumbnailUrl"`
		Finished      bool     `json:"finished"`
		FavoriteCount uint64   `json:"favoriteCount"`
		ViewCount     uint64   `json:"viewCount"`
		PublishDays   []string `json:"publishDayOfWeekList"`
	}
	res, err := a.http.Get(ctx, endpoint, func(r *resty.Request) *resty.Request {
		return r.
			SetQueryParam("titleId", strconv.Itoa(id)).
			SetResult(&body)
	})
	if err != nil {
		return meta{}, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return meta{}, ErrNotFound
	}
	if res.IsError() {
		return meta{}, upstreamErr(PlatformNaver, endpoint, res.StatusCode())
	}
	if body.TitleName == "" {
		return meta{}, parseErr(PlatformNaver, endpoint, "titleName", "missing from response")
	}

	m := meta{
		Title:       body.TitleName,
		Summary:     body.Synopsis,
		Genres:      body.GenreList,
		Views:       body.ViewCount,
		Subscribers: body.FavoriteCount,
		Thumbnail:   body.ThumbnailURL,
		Banner:      body.PosterURL,
		Completed:   body.Finished,
	}
	for _, w := range body.Writers {
		m.Creators = append(m.Creators, Creator{
			ID:         w.ID,
			Name:       w.Name,
			HasProfile: w.ID != "",
		})
	}
	if kind == KindOriginal {
		switch {
		case body.Finished:
			m.Schedule = "COMPLETED"
		case len(body.PublishDays) > 0:
			schedule := ""
			for i, day := range body.PublishDays {
				if i > 0 {
					schedule += ", "
				}
				schedule += day
			}
			m.Schedule = schedule
		}
	}
	return m, nil
}

func (a *naverAdapter) episodePage(ctx context.Context, w *Webtoon, tok paginate.Token) (paginate.Page[Episode], error) {
	const endpoint = "/api/article/list"

	page, known := tok.Number()
	if !known {
		page = 1
	}

	var body struct {
		PageInfo struct {
			PageNum    int `json:"pageNum"`
			TotalPages int `json:"totalPages"`
		} `json:"pageInfo"`
		Articles []struct {
			No          int    `json:"no"`
			Subtitle    string `json:"subtitle"`
			ViewCount   uint64 `json:"viewCount"`
			ServiceDate string `json:"serviceDateDescription"`
			Up          bool   `json:"up"`
		} `json:"articleList"`
	}
	res, err := a.http.Get(ctx, endpoint, func(r *resty.Request) *resty.Request {
		return r.
			SetQueryParam("titleId", strconv.Itoa(w.id)).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("sort", "ASC").
			SetResult(&body)
	})
	if err != nil {
		return paginate.Page[Episode]{}, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return paginate.Page[Episode]{}, ErrNotFound
	}
	if res.IsError() {
		return paginate.Page[Episode]{}, upstreamErr(PlatformNaver, endpoint, res.StatusCode())
	}
	if body.PageInfo.TotalPages == 0 && len(body.Articles) == 0 {
		return paginate.Page[Episode]{}, parseErr(PlatformNaver, endpoint, "pageInfo", "missing from response")
	}

	episodes := make([]Episode, 0, len(body.Articles))
	for _, art := range body.Articles {
		if art.No == 0 {
			return paginate.Page[Episode]{}, parseErr(PlatformNaver, endpoint, "articleList.no", "episode without a number")
		}
		var published time.Time
		if t, err := time.Parse("06.01.02", art.ServiceDate); err == nil {
			published = t
		}
		episodes = append(episodes, Episode{
			client:    w.client,
			webtoonID: w.id,
			kind:      w.kind,
			Number:    art.No,
			Title:     art.Subtitle,
			Season:    seasonFromTitle(art.Subtitle),
			Published: published,
			Views:     art.ViewCount,
			Upcoming:  art.Up,
		})
	}
	// ascending order is requested, but the contract does not trust
	// upstream ordering inside a page
	sort.Slice(episodes, func(i, j int) bool { return episodes[i].Number < episodes[j].Number })

	next := paginate.Token{}
	if body.PageInfo.PageNum < body.PageInfo.TotalPages {
		next = paginate.NumberToken(page + 1)
	}
	return paginate.Page[Episode]{Items: episodes, Next: next}, nil
}

type naverComment struct {
	CommentNo     string `json:"commentNo"`
	UserIDNo      string `json:"userIdNo"`
	UserName      string `json:"userName"`
	Contents      string `json:"contents"`
	SympathyCount int    `json:"sympathyCount"`
	RegTimeGmt    string `json:"regTimeGmt"`
	Deleted       bool   `json:"deleted"`
	ReplyCount    int    `json:"replyCount"`
}

type naverCommentEnvelope struct {
	Success    bool `json:"success"`
	APIVersion int  `json:"apiVersion"`
	Result     struct {
		Comments   []naverComment `json:"commentList"`
		Pagination struct {
			Next string `json:"next"`
		} `json:"pagination"`
	} `json:"result"`
}

func (a *naverAdapter) fetchComments(ctx context.Context, params map[string]string, tok paginate.Token) (*naverCommentEnvelope, error) {
	const endpoint = "/api/comments"

	var body naverCommentEnvelope
	res, err := a.http.Get(ctx, endpoint, func(r *resty.Request) *resty.Request {
		r = r.SetQueryParams(params).SetResult(&body)
		if cursor, ok := tok.Cursor(); ok {
			r = r.SetQueryParam("cursor", cursor)
		}
		return r
	})
	if err != nil {
		return nil, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, upstreamErr(PlatformNaver, endpoint, res.StatusCode())
	}
	if body.APIVersion != naverCommentAPIVersion {
		return nil, parseErr(PlatformNaver, endpoint, "apiVersion",
			"got "+strconv.Itoa(body.APIVersion)+", want "+strconv.Itoa(naverCommentAPIVersion))
	}
	if !body.Success {
		return nil, parseErr(PlatformNaver, endpoint, "success", "platform reported failure")
	}
	return &body, nil
}

func (a *naverAdapter) postPage(ctx context.Context, ep Episode, tok paginate.Token) (paginate.Page[Post], error) {
	env, err := a.fetchComments(ctx, map[string]string{
		"titleId":   strconv.Itoa(ep.webtoonID),
		"articleNo": strconv.Itoa(ep.Number),
	}, tok)
	if err != nil {
		return paginate.Page[Post]{}, err
	}

	posts := make([]Post, 0, len(env.Result.Comments))
	for _, c := range env.Result.Comments {
		posts = append(posts, Post{
			client:     ep.client,
			webtoonID:  ep.webtoonID,
			kind:       ep.kind,
			episodeNo:  ep.Number,
			ID:         c.CommentNo,
			Poster:     Poster{ID: c.UserIDNo, Name: c.UserName},
			Body:       c.Contents,
			Upvotes:    c.SympathyCount,
			CreatedAt:  parseNaverTime(c.RegTimeGmt),
			Deleted:    c.Deleted,
			ReplyCount: c.ReplyCount,
		})
	}
	return paginate.Page[Post]{
		Items: posts,
		Next:  paginate.CursorToken(env.Result.Pagination.Next),
	}, nil
}

func (a *naverAdapter) replyPage(ctx context.Context, p Post, tok paginate.Token) (paginate.Page[Reply], error) {
	env, err := a.fetchComments(ctx, map[string]string{
		"titleId":         strconv.Itoa(p.webtoonID),
		"articleNo":       strconv.Itoa(p.episodeNo),
		"parentCommentNo": p.ID,
	}, tok)
	if err != nil {
		return paginate.Page[Reply]{}, err
	}

	replies := make([]Reply, 0, len(env.Result.Comments))
	for _, c := range env.Result.Comments {
		replies = append(replies, Reply{
			ID:        c.CommentNo,
			Poster:    Poster{ID: c.UserIDNo, Name: c.UserName},
			Body:      c.Contents,
			Upvotes:   c.SympathyCount,
			CreatedAt: parseNaverTime(c.RegTimeGmt),
			Deleted:   c.Deleted,
		})
	}
	return paginate.Page[Reply]{
		Items: replies,
		Next:  paginate.CursorToken(env.Result.Pagination.Next),
	}, nil
}

func (a *naverAdapter) fetchCreator(ctx context.Context, id string) (Creator, error) {
	const endpoint = "/api/community/creator"

	var body struct {
		Success bool `json:"success"`
		Result  struct {
			ID             string `json:"id"`
			Nickname       string `json:"nickname"`
			ProfileEnabled bool   `json:"profileEnabled"`
		} `json:"result"`
	}
	res, err := a.http.Get(ctx, endpoint, func(r *resty.Request) *resty.Request {
		return r.SetQueryParam("id", id).SetResult(&body)
	})
	if err != nil {
		return Creator{}, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return Creator{}, ErrNotFound
	}
	if res.IsError() {
		return Creator{}, upstreamErr(PlatformNaver, endpoint, res.StatusCode())
	}
	if !body.Success {
		return Creator{}, parseErr(PlatformNaver, endpoint, "success", "platform reported failure")
	}
	// a creator may keep their profile page disabled; still a valid
	// result
	if !body.Result.ProfileEnabled {
		return Creator{ID: id, Name: body.Result.Nickname, HasProfile: false}, nil
	}
	if body.Result.Nickname == "" {
		return Creator{}, parseErr(PlatformNaver, endpoint, "result.nickname", "missing from response")
	}
	return Creator{ID: id, Name: body.Result.Nickname, HasProfile: true}, nil
}

func (a *naverAdapter) fetchViewer(ctx context.Context) (Viewer, error) {
	const endpoint = "/api/user/info"

	var body struct {
		Success bool `json:"success"`
		Result  struct {
			ID       string `json:"id"`
			Nickname string `json:"nickname"`
			Creator  bool   `json:"creator"`
		} `json:"result"`
	}
	res, err := a.http.Get(ctx, endpoint, func(r *resty.Request) *resty.Request {
		return r.SetResult(&body)
	})
	if err != nil {
		return Viewer{}, err
	}
	if res.StatusCode() == http.StatusUnauthorized || res.StatusCode() == http.StatusForbidden {
		return Viewer{}, ErrUnauthenticated
	}
	if res.IsError() {
		return Viewer{}, upstreamErr(PlatformNaver, endpoint, res.StatusCode())
	}
	if !body.Success || body.Result.ID == "" {
		return Viewer{}, parseErr(PlatformNaver, endpoint, "result.id", "missing from response")
	}
	return Viewer{ID: body.Result.ID, Nickname: body.Result.Nickname, Creator: body.Result.Creator}, nil
}
