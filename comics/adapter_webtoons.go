package comics

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"webtoonkit/lib/htmlutil"
	"webtoonkit/lib/paginate"
	"webtoonkit/lib/restyutil"
)

// webtoonsAdapter talks to the HTML-rendered platform. Every field is
// extracted by CSS selector; the small amount of data the platform
// only encodes in style attributes or free text (thumbnail url,
// season markers) is pattern-matched with absence as the fallback.
//
// Episode listings are served newest-first across pages, so the
// adapter walks them back to front: the first fetch derives the last
// page from page 1, then pages are visited last to first with each
// page reversed, which yields a globally ascending episode stream
// without materializing the whole set.
type webtoonsAdapter struct {
	http *restyutil.Client
}

const webtoonsDateLayout = "Jan 2, 2006"

// The platform serves fixed-size comment pages; a short page is the
// last one.
const webtoonsCommentPageSize = 15

func webtoonsListPath(kind Kind) string {
	seg := "*"
	if kind == KindCanvas {
		seg = "canvas"
	}
	return fmt.Sprintf("/en/%s/*/list", seg)
}

func (a *webtoonsAdapter) document(res *resty.Response) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
}

func (a *webtoonsAdapter) fetchMeta(ctx context.Context, id int, kind Kind) (meta, error) {
	endpoint := webtoonsListPath(kind)
	res, err := a.http.Get(ctx, endpoint, func(r *resty.Request) *resty.Request {
		return r.SetQueryParam("title_no", strconv.Itoa(id))
	})
	if err != nil {
		return meta{}, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return meta{}, ErrNotFound
	}
	if res.IsError() {
		return meta{}, upstreamErr(PlatformWebtoons, endpoint, res.StatusCode())
	}

	doc, err := a.document(res)
	if err != nil {
		return meta{}, parseErr(PlatformWebtoons, endpoint, "document", err.Error())
	}

	title := htmlutil.CleanText(doc.Find("h1.subj, h3.subj").First().Text())
	if title == "" {
		// a landing page without a title means the layout changed
		return meta{}, parseErr(PlatformWebtoons, endpoint, "title", "selector h1.subj matched nothing")
	}

	m := meta{Title: title}

	doc.Find(".author_area a.author").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		m.Creators = append(m.Creators, Creator{
			ID:         creatorIDFromHref(href),
			Name:       htmlutil.CleanText(s.Text()),
			HasProfile: href != "",
		})
	})
	if len(m.Creators) == 0 {
		// some series credit a studio as plain text with no profile
		if name := htmlutil.CleanText(doc.Find(".author_area").First().Text()); name != "" {
			m.Creators = append(m.Creators, Creator{Name: name})
		}
	}

	doc.Find("h2.genre").Each(func(_ int, s *goquery.Selection) {
		if g := htmlutil.CleanText(s.Text()); g != "" {
			m.Genres = append(m.Genres, g)
		}
	})

	m.Summary = htmlutil.CleanText(doc.Find("p.summary").First().Text())

	if views, ok := htmlutil.ParseGroupedCount(doc.Find(".ico_view + em.cnt").First().Text()); ok {
		m.Views = views
	}
	if subs, ok := htmlutil.ParseGroupedCount(doc.Find(".ico_subscribe + em.cnt").First().Text()); ok {
		m.Subscribers = subs
	}

	// optional images: thumbnail lives in an <img>, the banner only
	// exists inside an inline background-image style
	m.Thumbnail = doc.Find(".detail_header span.thmb img").First().AttrOr("src", "")
	if style, ok := doc.Find("div.detail_body").First().Attr("style"); ok {
		m.Banner = htmlutil.BackgroundImageURL(style)
	}

	if kind == KindOriginal {
		day := htmlutil.CleanText(doc.Find("p.day_info").First().Text())
		if strings.Contains(strings.ToUpper(day), "COMPLETED") {
			m.Completed = true
			m.Schedule = "COMPLETED"
		} else if day != "" {
			m.Schedule = day
		}
	}

	return m, nil
}

func creatorIDFromHref(href string) string {
	const marker = "/creator/"
	i := strings.Index(href, marker)
	if i < 0 {
		return ""
	}
	id := href[i+len(marker):]
	return strings.Trim(id, "/")
}

func (a *webtoonsAdapter) episodePage(ctx context.Context, w *Webtoon, tok paginate.Token) (paginate.Page[Episode], error) {
	endpoint := webtoonsListPath(w.kind)

	page, known := tok.Number()
	if !known {
		// discovery fetch: the on-page paginator is only a window of
		// nearby pages, so the last page is derived from the newest
		// episode number and the page size instead
		doc, err := a.fetchListPage(ctx, w, endpoint, 1)
		if err != nil {
			return paginate.Page[Episode]{}, err
		}
		episodes, err := a.parseEpisodes(w, endpoint, doc)
		if err != nil {
			return paginate.Page[Episode]{}, err
		}
		last := lastPageNumber(episodes)
		if last <= 1 {
			return paginate.Page[Episode]{Items: episodes}, nil
		}
		page = last
	}

	doc, err := a.fetchListPage(ctx, w, endpoint, page)
	if err != nil {
		return paginate.Page[Episode]{}, err
	}
	episodes, err := a.parseEpisodes(w, endpoint, doc)
	if err != nil {
		return paginate.Page[Episode]{}, err
	}

	next := paginate.Token{}
	if page > 1 {
		next = paginate.NumberToken(page - 1)
	}
	return paginate.Page[Episode]{Items: episodes, Next: next}, nil
}

func (a *webtoonsAdapter) fetchListPage(ctx context.Context, w *Webtoon, endpoint string, page int) (*goquery.Document, error) {
	res, err := a.http.Get(ctx, endpoint, func(r *resty.Request) *resty.Request {
		return r.
			SetQueryParam("title_no", strconv.Itoa(w.id)).
			SetQueryParam("page", strconv.Itoa(page))
	})
	if err != nil {
		return nil, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, upstreamErr(PlatformWebtoons, endpoint, res.StatusCode())
	}
	doc, err := a.document(res)
	if err != nil {
		return nil, parseErr(PlatformWebtoons, endpoint, "document", err.Error())
	}
	return doc, nil
}

// parseEpisodes reads the listing items of one page and reverses them
// into ascending episode-number order.
func (a *webtoonsAdapter) parseEpisodes(w *Webtoon, endpoint string, doc *goquery.Document) ([]Episode, error) {
	var episodes []Episode
	var parseFailure error

	doc.Find("ul#_listUl li._episodeItem").Each(func(_ int, s *goquery.Selection) {
		if parseFailure != nil {
			return
		}
		number, err := strconv.Atoi(s.AttrOr("data-episode-no", ""))
		if err != nil {
			parseFailure = parseErr(PlatformWebtoons, endpoint, "data-episode-no", "episode item without a number")
			return
		}

		title := htmlutil.CleanText(s.Find("span.subj").First().Text())

		var published time.Time
		if date := htmlutil.CleanText(s.Find("span.date").First().Text()); date != "" {
			if t, err := time.Parse(webtoonsDateLayout, date); err == nil {
				published = t
			}
		}

		episodes = append(episodes, Episode{
			client:    w.client,
			webtoonID: w.id,
			kind:      w.kind,
			Number:    number,
			Title:     title,
			Season:    seasonFromTitle(title),
			Published: published,
			Upcoming:  s.HasClass("_upcoming"),
		})
	})
	if parseFailure != nil {
		return nil, parseFailure
	}

	// listings arrive newest-first; the contract is ascending
	for i, j := 0, len(episodes)-1; i < j; i, j = i+1, j-1 {
		episodes[i], episodes[j] = episodes[j], episodes[i]
	}
	return episodes, nil
}

// lastPageNumber derives the listing's page count from the first
// page: episode numbers are assigned densely from 1, so the newest
// number divided by the page size is the number of pages.
func lastPageNumber(firstPage []Episode) int {
	perPage := len(firstPage)
	if perPage == 0 {
		return 1
	}
	top := 0
	for _, ep := range firstPage {
		if ep.Number > top {
			top = ep.Number
		}
	}
	pages := (top + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

func (a *webtoonsAdapter) postPage(ctx context.Context, ep Episode, tok paginate.Token) (paginate.Page[Post], error) {
	const endpoint = "/episodeComments"

	page, known := tok.Number()
	if !known {
		page = 1
	}

	res, err := a.http.Get(ctx, endpoint, func(r *resty.Request) *resty.Request {
		return r.
			SetQueryParam("titleNo", strconv.Itoa(ep.webtoonID)).
			SetQueryParam("episodeNo", strconv.Itoa(ep.Number)).
			SetQueryParam("page", strconv.Itoa(page))
	})
	if err != nil {
		return paginate.Page[Post]{}, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return paginate.Page[Post]{}, ErrNotFound
	}
	if res.IsError() {
		return paginate.Page[Post]{}, upstreamErr(PlatformWebtoons, endpoint, res.StatusCode())
	}
	doc, err := a.document(res)
	if err != nil {
		return paginate.Page[Post]{}, parseErr(PlatformWebtoons, endpoint, "document", err.Error())
	}

	var posts []Post
	var parseFailure error
	doc.Find("ul.comment_list li.comment_item").Each(func(_ int, s *goquery.Selection) {
		if parseFailure != nil {
			return
		}
		id := s.AttrOr("data-comment-no", "")
		if id == "" {
			parseFailure = parseErr(PlatformWebtoons, endpoint, "data-comment-no", "comment item without an id")
			return
		}

		post := Post{
			client:    ep.client,
			webtoonID: ep.webtoonID,
			kind:      ep.kind,
			episodeNo: ep.Number,
			ID:        id,
			Deleted:   s.HasClass("_deleted"),
		}
		if !post.Deleted {
			post.Poster = Poster{
				ID:   s.Find("a.u_name").First().AttrOr("data-user-id", ""),
				Name: htmlutil.CleanText(s.Find("a.u_name").First().Text()),
			}
			post.Body = htmlutil.CleanText(s.Find("p.comment_text").First().Text())
		}
		if likes, ok := htmlutil.ParseGroupedCount(s.Find("em.like_cnt").First().Text()); ok {
			post.Upvotes = int(likes)
		}
		if replies, ok := htmlutil.ParseGroupedCount(s.Find("span.reply_cnt").First().Text()); ok {
			post.ReplyCount = int(replies)
		}
		if date := htmlutil.CleanText(s.Find("span.date").First().Text()); date != "" {
			if t, err := time.Parse(webtoonsDateLayout, date); err == nil {
				post.CreatedAt = t
			}
		}
		posts = append(posts, post)
	})
	if parseFailure != nil {
		return paginate.Page[Post]{}, parseFailure
	}

	next := paginate.Token{}
	if len(posts) >= webtoonsCommentPageSize {
		next = paginate.NumberToken(page + 1)
	}
	return paginate.Page[Post]{Items: posts, Next: next}, nil
}

func (a *webtoonsAdapter) replyPage(ctx context.Context, p Post, tok paginate.Token) (paginate.Page[Reply], error) {
	const endpoint = "/episodeCommentReplies"

	page, known := tok.Number()
	if !known {
		page = 1
	}

	res, err := a.http.Get(ctx, endpoint, func(r *resty.Request) *resty.Request {
		return r.
			SetQueryParam("titleNo", strconv.Itoa(p.webtoonID)).
			SetQueryParam("episodeNo", strconv.Itoa(p.episodeNo)).
			SetQueryParam("commentNo", p.ID).
			SetQueryParam("page", strconv.Itoa(page))
	})
	if err != nil {
		return paginate.Page[Reply]{}, err
	}
	if res.IsError() {
		return paginate.Page[Reply]{}, upstreamErr(PlatformWebtoons, endpoint, res.StatusCode())
	}
	doc, err := a.document(res)
	if err != nil {
		return paginate.Page[Reply]{}, parseErr(PlatformWebtoons, endpoint, "document", err.Error())
	}

	var replies []Reply
	doc.Find("ul.reply_list li.reply_item").Each(func(_ int, s *goquery.Selection) {
		reply := Reply{
			ID:      s.AttrOr("data-comment-no", ""),
			Deleted: s.HasClass("_deleted"),
		}
		if !reply.Deleted {
			reply.Poster = Poster{
				ID:   s.Find("a.u_name").First().AttrOr("data-user-id", ""),
				Name: htmlutil.CleanText(s.Find("a.u_name").First().Text()),
			}
			reply.Body = htmlutil.CleanText(s.Find("p.comment_text").First().Text())
		}
		if likes, ok := htmlutil.ParseGroupedCount(s.Find("em.like_cnt").First().Text()); ok {
			reply.Upvotes = int(likes)
		}
		if date := htmlutil.CleanText(s.Find("span.date").First().Text()); date != "" {
			if t, err := time.Parse(webtoonsDateLayout, date); err == nil {
				reply.CreatedAt = t
			}
		}
		replies = append(replies, reply)
	})

	next := paginate.Token{}
	if len(replies) >= webtoonsCommentPageSize {
		next = paginate.NumberToken(page + 1)
	}
	return paginate.Page[Reply]{Items: replies, Next: next}, nil
}

func (a *webtoonsAdapter) fetchCreator(ctx context.Context, id string) (Creator, error) {
	endpoint := "/creator/" + id
	res, err := a.http.Get(ctx, endpoint)
	if err != nil {
		return Creator{}, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return Creator{}, ErrNotFound
	}
	if res.IsError() {
		return Creator{}, upstreamErr(PlatformWebtoons, endpoint, res.StatusCode())
	}
	doc, err := a.document(res)
	if err != nil {
		return Creator{}, parseErr(PlatformWebtoons, endpoint, "document", err.Error())
	}

	// a disabled profile page is a valid state, not a failure
	if doc.Find("div.profile_off").Length() > 0 {
		return Creator{ID: id, HasProfile: false}, nil
	}

	name := htmlutil.CleanText(doc.Find("h2.nickname").First().Text())
	if name == "" {
		return Creator{}, parseErr(PlatformWebtoons, endpoint, "nickname", "selector h2.nickname matched nothing")
	}
	return Creator{ID: id, Name: name, HasProfile: true}, nil
}

func (a *webtoonsAdapter) fetchViewer(ctx context.Context) (Viewer, error) {
	const endpoint = "/api/v1/user/info"

	var body struct {
		Success bool `json:"success"`
		Result  struct {
			UserID   string `json:"userId"`
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
		return Viewer{}, upstreamErr(PlatformWebtoons, endpoint, res.StatusCode())
	}
	if !body.Success || body.Result.UserID == "" {
		return Viewer{}, parseErr(PlatformWebtoons, endpoint, "result.userId", "missing from response")
	}
	return Viewer{
		ID:       body.Result.UserID,
		Nickname: body.Result.Nickname,
		Creator:  body.Result.Creator,
	}, nil
}
