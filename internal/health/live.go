package health

import "net/http"

// LiveHandler answers as long as the process is up.
func LiveHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(200)
	w.Write([]byte(`{"status":"alive"}`))
}
