package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON serializes v to the response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// indexHTML is the minimal dashboard served at "/". It polls the job list
// and renders progress without any build-time templating.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>neldermead</title>
  <style>
    body { font-family: monospace; margin: 2em; }
    table { border-collapse: collapse; }
    td, th { border: 1px solid #999; padding: 4px 10px; text-align: left; }
  </style>
</head>
<body>
  <h1>neldermead jobs</h1>
  <table id="jobs">
    <tr><th>ID</th><th>Objective</th><th>Algo</th><th>State</th><th>Iterations</th><th>Best value</th><th>Reason</th></tr>
  </table>
  <script>
    async function refresh() {
      const resp = await fetch('/api/v1/jobs');
      const jobs = await resp.json();
      const table = document.getElementById('jobs');
      while (table.rows.length > 1) table.deleteRow(1);
      for (const job of jobs) {
        const row = table.insertRow();
        row.insertCell().textContent = job.id.slice(0, 8);
        row.insertCell().textContent = job.config.objective;
        row.insertCell().textContent = job.config.algo;
        row.insertCell().textContent = job.state;
        row.insertCell().textContent = job.iterations;
        row.insertCell().textContent = job.bestValue.toPrecision(6);
        row.insertCell().textContent = job.reason || '';
      }
    }
    refresh();
    setInterval(refresh, 1000);
  </script>
</body>
</html>
`

// handleIndex serves the dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}
