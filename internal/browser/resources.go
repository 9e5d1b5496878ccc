package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceKinds maps the config names in browser.block_resources to the
// CDP resource types they cover. Unknown names are matched against the CDP
// type directly (e.g. "xhr", "script").
var resourceKinds = map[string]proto.NetworkResourceType{
	"images":      proto.NetworkResourceTypeImage,
	"fonts":       proto.NetworkResourceTypeFont,
	"media":       proto.NetworkResourceTypeMedia,
	"stylesheets": proto.NetworkResourceTypeStylesheet,
}

// blockedTypes resolves config names to the set of lower-cased CDP types
// to fail.
func blockedTypes(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if rt, ok := resourceKinds[name]; ok {
			out[strings.ToLower(string(rt))] = true
			continue
		}
		out[name] = true
	}
	return out
}

// blockResources hijacks every request on page and fails the ones whose
// type is blocked.
func blockResources(page *rod.Page, names []string) *rod.HijackRouter {
	blocked := blockedTypes(names)

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if blocked[strings.ToLower(string(h.Request.Type()))] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()

	return router
}
