// simulate fires a burst of concurrent booking requests for the same doctor
// and time window and tallies the outcomes. With the booking lock and the
// exclusion constraint in place exactly one request should be accepted no
// matter how many race.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

type bookingPayload struct {
	PatientUserID string `json:"patient_user_id"`
	DoctorUserID  string `json:"doctor_user_id"`
	StartsAt      string `json:"starts_at"`
	Notes         string `json:"notes,omitempty"`
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func main() {
	log.SetFlags(log.LstdFlags)

	baseURL := getenv("BASE_URL", "http://localhost:8080")
	doctorID := os.Getenv("DOCTOR_ID")
	patientsRaw := os.Getenv("PATIENT_IDS") // comma separated
	startsAt := os.Getenv("STARTS_AT")      // RFC3339, must fall inside the doctor's schedule

	if doctorID == "" || patientsRaw == "" || startsAt == "" {
		log.Fatal("DOCTOR_ID, PATIENT_IDS and STARTS_AT are required")
	}

	patients := strings.Split(patientsRaw, ",")
	log.Printf("firing %d concurrent bookings for doctor %s at %s", len(patients), doctorID, startsAt)

	client := &http.Client{Timeout: 10 * time.Second}

	var mu sync.Mutex
	outcomes := make(map[string]int)

	var wg sync.WaitGroup
	start := time.Now()

	for _, patientID := range patients {
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()

			outcome := book(client, baseURL, bookingPayload{
				PatientUserID: strings.TrimSpace(pid),
				DoctorUserID:  doctorID,
				StartsAt:      startsAt,
				Notes:         "simulated booking",
			})

			mu.Lock()
			outcomes[outcome]++
			mu.Unlock()
		}(patientID)
	}

	wg.Wait()
	log.Printf("done in %s", time.Since(start))

	for outcome, n := range outcomes {
		fmt.Printf("%4d  %s\n", n, outcome)
	}

	if outcomes["accepted"] > 1 {
		log.Fatalf("RACE DETECTED: %d bookings accepted for the same window", outcomes["accepted"])
	}
	log.Println("at most one booking accepted, race closed")
}

func book(client *http.Client, baseURL string, payload bookingPayload) string {
	body, err := json.Marshal(payload)
	if err != nil {
		return "marshal error: " + err.Error()
	}

	resp, err := client.Post(baseURL+"/appointments", "application/json", bytes.NewReader(body))
	if err != nil {
		return "transport error: " + err.Error()
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "decode error: " + err.Error()
	}

	if env.Success {
		return "accepted"
	}
	return env.Message
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
