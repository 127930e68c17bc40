package render

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// FrameScript runs inside every frame document. It is constant so the frame
// CSP can pin it by hash.
//
// Height is read from body.offsetHeight, the content box. Reporting the
// scroll height instead feeds the frame's own resize back into itself and
// loops forever. Excerpts are a different matter: each clamped .excerpt is
// compared against its own box on load and on every resize, replacing the
// server's first-paint guess of is-truncated.
const FrameScript = `(function(){
var b=document.body,page=parseInt(b.getAttribute('data-page'),10)||1,terminal=b.hasAttribute('data-terminal'),last=-1;
function clamp(){
var xs=document.querySelectorAll('.excerpt');
for(var i=0;i<xs.length;i++){var x=xs[i];x.classList.toggle('is-truncated',x.scrollHeight>x.clientHeight+1);}
}
function report(){
var h=b.offsetHeight;
if(h===last)return;
last=h;
var m={type:'height-report',page:page,height:h};
if(terminal)m.terminal=true;
window.parent.postMessage(m,'*');
}
clamp();
report();
window.addEventListener('load',function(){clamp();last=-1;report();});
window.addEventListener('resize',clamp);
if(window.ResizeObserver)new ResizeObserver(function(){clamp();report();}).observe(b);
document.addEventListener('click',function(e){
var img=e.target&&e.target.closest?e.target.closest('img.gallery-img'):null;
if(!img)return;
e.preventDefault();
try{
var images=JSON.parse(img.getAttribute('data-images')||'[]');
var index=parseInt(img.getAttribute('data-index'),10)||0;
if(images.length)window.parent.postMessage({type:'image-click',images:images,index:index},'*');
}catch(_){}
});
window.addEventListener('message',function(e){
if(e.source!==window.parent)return;
var d=e.data;
if(!d||d.type!=='theme-change'||typeof d.isDark!=='boolean')return;
document.documentElement.className=d.isDark?'theme-dark':'theme-light';
});
})();`

var frameScriptHash = func() string {
	sum := sha256.Sum256([]byte(FrameScript))
	return "'sha256-" + base64.StdEncoding.EncodeToString(sum[:]) + "'"
}()

// FrameScriptHash is the CSP source expression for FrameScript.
func FrameScriptHash() string { return frameScriptHash }

// FrameCSP is the Content-Security-Policy for frame documents.
func FrameCSP() string {
	return "frame-ancestors 'self'; script-src " + frameScriptHash + "; object-src 'none'; base-uri 'none'"
}

// ETagMatches applies If-None-Match's weak comparison: any listed tag, with
// or without a W/ prefix, or "*".
func ETagMatches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" || etag == "" {
		return false
	}
	etag = strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(ifNoneMatch, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == etag {
			return true
		}
	}
	return false
}

// ETag is a strong validator over a rendered body.
func ETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
