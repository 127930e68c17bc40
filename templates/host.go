package templates

// Host pages. Each page template defines "content" and is compiled together
// with "base", which wraps it with the chrome, the lightbox shell and host.js.
// Frame regions come from "listing".

func GetHostBaseTemplates() string {
	return hostBaseTemplate + listingTemplate
}

func GetHomeTemplate() string  { return GetHostBaseTemplates() + homeContent }
func GetTagTemplate() string   { return GetHostBaseTemplates() + tagContent }
func GetFeedTemplate() string  { return GetHostBaseTemplates() + feedContent }
func GetErrorTemplate() string { return GetHostBaseTemplates() + errorContent }

var hostBaseTemplate = `{{define "base"}}<!DOCTYPE html>
<html lang="zh-CN">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="description" content="{{.Description}}">
  <meta property="og:title" content="{{.Title}} - {{.Site.Name}}">
  <meta property="og:description" content="{{.Description}}">
  <meta property="og:type" content="article">
  {{if .Image}}<meta property="og:image" content="{{.Image}}">{{end}}
  {{if .CanonicalURL}}<meta property="og:url" content="{{.CanonicalURL}}">
  <link rel="canonical" href="{{.CanonicalURL}}">{{end}}
  <title>{{.Title}} - {{.Site.Name}}</title>
  <link rel="stylesheet" href="/static/style.css">
  <script src="/static/host.js" defer></script>
  {{if .Site.AdsEnabled}}<script async src="https://pagead2.googlesyndication.com/pagead/js/adsbygoogle.js?client={{.Site.AdClient}}" crossorigin="anonymous"></script>{{end}}
</head>
<body>
  <header class="site-header"><a href="/" class="site-name">{{.Site.Name}}</a></header>
  <main id="main-content" class="container">
    {{template "content" .}}
  </main>
  <footer class="site-footer">{{.Site.Description}}</footer>
  <div id="lightbox" class="lightbox" hidden>
    <button type="button" class="lb-close" aria-label="关闭">×</button>
    <button type="button" class="lb-prev" aria-label="上一张">‹</button>
    <img class="lb-img" alt="">
    <button type="button" class="lb-next" aria-label="下一张">›</button>
    <span class="lb-count"></span>
  </div>
</body>
</html>
{{end}}`

var listingTemplate = `{{define "listing"}}<section class="frame-list" data-listing="{{.Kind}}" data-key="{{.Key}}" data-max-pages="{{.MaxPages}}" data-root-margin="{{.RootMargin}}" data-path="{{.SrcTemplate}}"{{if .Lazy}} data-lazy{{end}}>
  {{range .Pages}}<iframe class="content-frame is-loading" data-page="{{.Page}}" src="{{.Src}}" title="page {{.Page}}" scrolling="no"></iframe>
  {{end}}<div class="frame-sentinel" aria-hidden="true"></div>
  <div class="frame-end"{{if not .Exhausted}} hidden{{end}}>没有更多了</div>
</section>{{end}}`

var homeContent = `{{define "content"}}
<form class="share-form" action="/go" method="get">
  <input type="text" name="u" placeholder="{{.ShareHint}}" required>
  <button type="submit">打开</button>
</form>
<h2 class="section-title">头条</h2>
{{template "listing" .Headlines}}
{{end}}`

var tagContent = `{{define "content"}}
<h1 class="tag-title">#{{.Tag}}</h1>
{{template "listing" .Listing}}
{{end}}`

var feedContent = `{{define "content"}}
<article class="post">
  <div class="post-author">
    <img class="avatar" src="{{.Avatar}}" alt="{{.Author}}">
    <div>
      <div class="author-name">{{.Author}}{{if .Verified}} <span class="badge">认证</span>{{end}}</div>
      <div class="meta">{{.Date}}{{if .Device}} · {{.Device}}{{end}}</div>
    </div>
    <a class="md-toggle{{if .Markdown}} on{{end}}" href="{{.ToggleURL}}" rel="nofollow">Markdown</a>
  </div>
  {{if .PostTitle}}<h1 class="post-title">{{.PostTitle}}</h1>{{end}}
  {{if .Summary}}<aside class="post-summary"><div class="summary-label">AI 摘要</div><p>{{.Summary}}</p></aside>{{end}}
  <div class="post-body{{if .Markdown}} markdown{{end}}">{{.Body}}</div>
  {{if .Images}}<div class="post-gallery">{{range $i, $p := .Images}}<img class="gallery-img" src="{{$p}}" alt="" loading="lazy" data-images="{{$.ImagesJSON}}" data-index="{{$i}}">{{end}}</div>{{end}}
  {{if .Topic}}<a class="topic" href="/t/{{.Topic}}">#{{.Topic}}</a>{{end}}
  <div class="counters meta"><span>赞 {{.Likes}}</span><span>评论 {{.Replies}}</span><span>分享 {{.Shares}}</span></div>
  <div class="share">
    <img class="qr" src="{{.QRPath}}" alt="QR" width="96" height="96" loading="lazy">
    {{if .OriginalURL}}<a class="original" href="{{.OriginalURL}}" rel="noopener" target="_blank">查看原文</a>{{end}}
  </div>
</article>
{{if .Site.AdsEnabled}}<div class="ad-slot"><ins class="adsbygoogle" style="display:block" data-ad-client="{{.Site.AdClient}}" data-ad-slot="{{.Site.AdSlot}}" data-ad-format="auto" data-full-width-responsive="true"></ins></div>{{end}}
<h2 class="section-title">热门评论</h2>
{{template "listing" .ReplyFrames}}
{{end}}`

var errorContent = `{{define "content"}}
<div class="error-page">
  <h1>{{.Status}}</h1>
  <p>{{.Message}}</p>
  <p><a href="/">返回首页</a></p>
</div>
{{end}}`
