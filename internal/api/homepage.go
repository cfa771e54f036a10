package api

import (
	"fmt"
	"log/slog"
	"net/http"
)

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Atlas Command chain controls</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">Atlas Command chain controls</span>

Chain-control advisories for commercial routes over mountain passes.

<span class="header">API Endpoints:</span>

Passes:
  <a href="/api/v1/passes">GET /api/v1/passes</a>                        - Mountain pass catalog
  <a href="/api/v1/passes/near?route=38.58,-121.49;39.53,-119.81">GET /api/v1/passes/near?route=...</a>       - Passes near a route

Chain controls:
  GET|POST /api/v1/chain-controls                 - Alerts for a route
  GET /api/v1/chain-controls.kml                  - Alerts as KML
  GET /api/v1/chain-controls/official             - Posted Caltrans controls near a route

Monitored routes:
  <a href="/api/v1/routes">GET /api/v1/routes</a>                        - Monitored routes
  <a href="/api/v1/routes/i80-sacramento-reno/advisory">GET /api/v1/routes/{route_id}/advisory</a>    - Cached route advisory

Briefings:
  POST /api/v1/briefings                          - Driver briefing for a route

<span class="header">Chain levels:</span>
  R1  chains on the drive axle
  R2  chains on all vehicles except 4WD/AWD with snow tires
  R3  road closed

<span class="header">Example Usage:</span>
  curl '/api/v1/chain-controls?route=38.58,-121.49;39.33,-120.18;39.53,-119.81'
  curl -X POST /api/v1/chain-controls -d '{"waypoints":[{"lat":38.58,"lng":-121.49},{"lat":39.53,"lng":-119.81}]}'
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
