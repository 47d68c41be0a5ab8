package reload

import "net/http"

// ScriptPath is where the dev server serves the browser snippet.
const ScriptPath = "/__themegrid/reload.js"

// script reloads the page, or swaps stylesheets in place, on LiveReload
// commands received from /livereload.
const script = `(function () {
  var url = (location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/livereload";
  function connect() {
    var ws = new WebSocket(url);
    ws.onopen = function () {
      ws.send(JSON.stringify({command: "hello", protocols: ["` + LiveReloadProtocol + `"]}));
    };
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.command === "alert") {
        console.error("[themegrid] " + msg.message);
        return;
      }
      if (msg.command !== "reload") return;
      if (msg.liveCSS) {
        var links = document.querySelectorAll('link[rel="stylesheet"]');
        for (var i = 0; i < links.length; i++) {
          var href = links[i].href.replace(/[?&]themegrid=\d+/, "");
          links[i].href = href + (href.indexOf("?") < 0 ? "?" : "&") + "themegrid=" + Date.now();
        }
        return;
      }
      location.reload();
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
`

// ScriptHandler serves the browser snippet.
func ScriptHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(script))
	})
}
