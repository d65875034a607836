package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Standalone mock GPU pipeline server for manual testing.
// Run with: go run test_pipeline_server.go
// Point pipeline.base_url at http://localhost:9100 in your config.

type preprocessPayload struct {
	AudioPath      string  `json:"audio_path"`
	NoiseReduction float64 `json:"noise_reduction"`
	Normalize      bool    `json:"normalize"`
	ProjectID      string  `json:"project_id"`
}

type stagePayload struct {
	AudioPath string `json:"audio_path"`
	ProjectID string `json:"project_id"`
}

type stageResponse struct {
	Status string `json:"status"`
	Stage  string `json:"stage"`
	Path   string `json:"path"`
}

func preprocessHandler(w http.ResponseWriter, r *http.Request) {
	log.Printf("🎵 PREPROCESS REQUEST from %s", r.RemoteAddr)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload preprocessPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("❌ Failed to decode payload: %v", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	log.Printf("📋 Audio path: %s", payload.AudioPath)
	log.Printf("📋 Noise reduction: %.2f, normalize: %v", payload.NoiseReduction, payload.Normalize)
	log.Printf("📋 Project: %s", payload.ProjectID)

	// Simulate queueing the job on the GPU worker
	time.Sleep(200 * time.Millisecond)

	respond(w, "preprocess", payload.AudioPath)
}

func diarizeHandler(w http.ResponseWriter, r *http.Request) {
	stageHandler(w, r, "diarize")
}

func chunkHandler(w http.ResponseWriter, r *http.Request) {
	stageHandler(w, r, "chunk")
}

func stageHandler(w http.ResponseWriter, r *http.Request, stage string) {
	log.Printf("🎵 %s REQUEST from %s", stage, r.RemoteAddr)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload stagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("❌ Failed to decode payload: %v", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	log.Printf("📋 Audio path: %s", payload.AudioPath)
	log.Printf("📋 Project: %s", payload.ProjectID)

	time.Sleep(200 * time.Millisecond)

	respond(w, stage, payload.AudioPath)
}

func respond(w http.ResponseWriter, stage, path string) {
	response := stageResponse{
		Status: "accepted",
		Stage:  stage,
		Path:   path,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(response)

	log.Printf("✅ %s ACCEPTED: %s", stage, path)
	log.Println("---")
}

func main() {
	http.HandleFunc("/audio/preprocess/", preprocessHandler)
	http.HandleFunc("/audio/diarize/", diarizeHandler)
	http.HandleFunc("/audio/chunk/", chunkHandler)

	port := ":9100"
	log.Printf("🚀 Test GPU Pipeline Server starting on port %s", port)
	log.Printf("📡 Endpoints: http://localhost%s/audio/{preprocess,diarize,chunk}/", port)
	log.Println("💡 Update your config to use: base_url: http://localhost:9100")

	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
