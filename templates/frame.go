package templates

// Frame documents. Each is served into an iframe on the same origin, carries
// its own palette and the constant frame script, and never links its own
// navigation (card links target the top window).

func GetFrameTemplates() string {
	return frameHeadTemplate + galleryTemplate + repliesFrameTemplate + cardsFrameTemplate
}

var frameHeadTemplate = `{{define "frame-head"}}<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<meta name="robots" content="noindex">
<style>
*{box-sizing:border-box;-webkit-tap-highlight-color:transparent}
:root{--bg:#f9f9f9;--card:#fff;--c1:#333;--c2:#aaa;--c3:#bbb;--border:#f0f0f0;--nestbg:#f0f0f0;--link:{{.LinkColor}};--rowmsg:#444}
@media(prefers-color-scheme:dark){:root{--bg:#1a1a1a;--card:#222;--c1:#e0e0e0;--c2:#888;--c3:#666;--border:#333;--nestbg:#252525;--link:#3dd56d;--rowmsg:#ccc}}
:root.theme-light{--bg:#f9f9f9;--card:#fff;--c1:#333;--c2:#aaa;--c3:#bbb;--border:#f0f0f0;--nestbg:#f0f0f0;--link:{{.LinkColor}};--rowmsg:#444}
:root.theme-dark{--bg:#1a1a1a;--card:#222;--c1:#e0e0e0;--c2:#888;--c3:#666;--border:#333;--nestbg:#252525;--link:#3dd56d;--rowmsg:#ccc}
html,body{overflow:hidden}
body{margin:0;padding:0;background:var(--bg);color:var(--c1);font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,"Helvetica Neue",Arial,sans-serif}
img{max-width:100%;border:0}
a{color:var(--link);text-decoration:none}
.feed-emoji{display:inline-block}
.empty{padding:16px 0;color:var(--c2);font-size:.9em;text-align:center}
.avatar{width:36px;height:36px;border-radius:50%;flex-shrink:0}
.badge{font-size:.68em;padding:1px 6px;border-radius:10px;background:var(--link);color:#fff}
.meta{font-size:.82em;color:var(--c2)}
.gallery{display:grid;grid-template-columns:repeat(auto-fill,minmax(min(80px,30%),1fr));gap:8px}
.gallery-img{width:100%;aspect-ratio:1;border-radius:4px;object-fit:cover;cursor:zoom-in;display:block}
.reply{padding:12px 0;border-bottom:1px solid var(--border)}
.reply:last-child{border-bottom:0}
.reply-head{display:flex;align-items:center;gap:10px;margin-bottom:8px}
.reply-body{margin-left:46px;display:flex;flex-direction:column;gap:10px;line-height:1.65;word-break:break-word}
.rows{background:var(--nestbg);border-radius:6px;padding:8px 12px;display:flex;flex-direction:column;gap:8px;font-size:.92em}
.row-msg{color:var(--rowmsg)}
.row-more{font-size:.86em;color:var(--link)}
.card{display:block;background:var(--card);border-radius:10px;padding:12px 14px;margin:0 0 10px;color:var(--c1)}
.card-head{display:flex;align-items:center;gap:8px;margin-bottom:6px}
.card-title{font-weight:600;font-size:1.02em;margin:4px 0}
.excerpt{position:relative;display:-webkit-box;-webkit-box-orient:vertical;-webkit-line-clamp:3;overflow:hidden;line-height:1.6}
.excerpt.with-title{-webkit-line-clamp:2}
.excerpt.is-truncated::after{content:"";position:absolute;right:0;bottom:0;width:40%;height:1.6em;background:linear-gradient(to right,transparent,var(--card))}
.pics{display:grid;grid-template-columns:repeat(3,1fr);gap:6px;margin-top:8px;position:relative}
.pics .more{position:absolute;right:6px;bottom:6px;background:rgba(0,0,0,.55);color:#fff;font-size:.75em;padding:1px 6px;border-radius:8px}
.counters{display:flex;gap:14px;margin-top:8px}
.topic{display:inline-block;margin-top:6px;font-size:.8em;color:var(--link)}
</style>
</head>
{{end}}`

var galleryTemplate = `{{define "gallery"}}{{if .Pics}}<div class="gallery">{{range $i, $p := .Pics}}<img class="gallery-img" src="{{$p}}" alt="" loading="lazy" data-images="{{$.ImagesJSON}}" data-index="{{$i}}">{{end}}</div>{{end}}{{end}}`

var repliesFrameTemplate = `{{define "replies-frame"}}{{template "frame-head" .}}<body data-page="{{.Page}}"{{if .Terminal}} data-terminal{{end}}>
<div style="padding:0 0 32px">
{{if not .Replies}}<div class="empty">暂无热门评论</div>{{end}}
{{range .Replies}}<div class="reply">
  <div class="reply-head">
    <img class="avatar" src="{{.Avatar}}" alt="{{.Author}}" loading="lazy">
    <div style="display:flex;flex-direction:column;flex:1;gap:2px">
      <span style="font-weight:600;display:flex;align-items:center;gap:6px">{{.Author}}{{if .IsAuthor}} <span class="badge">作者</span>{{end}}</span>
      <span class="meta">{{.Date}}</span>
    </div>
    <div class="meta" style="display:flex;gap:10px">{{if .Likes}}<span>赞 {{.Likes}}</span>{{end}}{{if .Replies}}<span>回复 {{.Replies}}</span>{{end}}</div>
  </div>
  <div class="reply-body">
    {{if .Body}}<div>{{.Body}}</div>{{end}}
    {{template "gallery" .}}
    {{if .Rows}}<div class="rows">
      {{range .Rows}}<div>
        <span style="font-weight:600;color:var(--link)">{{.Author}}</span>{{if .ReplyTo}}<span style="color:var(--c3)"> 回复 <span style="color:var(--link)">{{.ReplyTo}}</span></span>{{end}}
        <span class="row-msg">：{{.Body}}</span>
        {{template "gallery" .}}
        <div class="meta">{{.Date}}</div>
      </div>{{end}}
      {{if .More}}<div class="row-more">还有 {{.More}} 条回复…</div>{{end}}
    </div>{{end}}
  </div>
</div>{{end}}
</div>
<script>{{.Script}}</script>
</body>
</html>{{end}}`

var cardsFrameTemplate = `{{define "cards-frame"}}{{template "frame-head" .}}<body data-page="{{.Page}}"{{if .Terminal}} data-terminal{{end}}>
<div style="padding:0 0 8px">
{{if not .Cards}}<div class="empty">没有更多内容了</div>{{end}}
{{range .Cards}}{{$card := .}}<a class="card" href="{{.Href}}" target="_top">
  <div class="card-head">
    <img class="avatar" src="{{.Avatar}}" alt="{{.Author}}" loading="lazy" style="width:28px;height:28px">
    <span style="font-weight:600">{{.Author}}</span>{{if .Verified}} <span class="badge">认证</span>{{end}}
    <span class="meta">{{.TimeAgo}}{{if .Device}} · {{.Device}}{{end}}</span>
  </div>
  {{if .Title}}<div class="card-title">{{.Title}}</div>{{end}}
  <div class="excerpt{{if .Title}} with-title{{end}}{{if .Truncated}} is-truncated{{end}}">{{.Excerpt}}</div>
  {{if .Pics}}<div class="pics">{{range $i, $p := .Pics}}<img class="gallery-img" src="{{$p}}" alt="" loading="lazy" data-images="{{$card.ImagesJSON}}" data-index="{{$i}}">{{end}}{{if .MorePics}}<span class="more">{{.PicCount}}图</span>{{end}}</div>{{end}}
  {{if .Topic}}<span class="topic">#{{.Topic}}</span>{{end}}
  <div class="counters meta"><span>赞 {{.Likes}}</span><span>评论 {{.Replies}}</span><span>分享 {{.Shares}}</span></div>
</a>{{end}}
</div>
<script>{{.Script}}</script>
</body>
</html>{{end}}`
