// Command companion is a terminal client for the replay service: it lists
// recent games, opens a commentary stream, and takes pause/resume/quit
// commands from stdin.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"skyline/internal/domain/models"
	"skyline/pkg/sse"
	xutil "skyline/pkg/util"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "replay server base URL")
	mode := flag.String("mode", "casual", "commentary mode: casual or technical")
	interval := flag.Int("interval", 20, "seconds between plays: 10, 20 or 30")
	user := flag.String("user", "", "user id (empty means guest)")
	speak := flag.Bool("speak", false, "request an audio URL for each line")
	flag.Parse()

	games, err := fetchRecentGames(*server)
	if err != nil {
		log.Fatalf("fetch recent games: %v", err)
	}
	if len(games) == 0 {
		log.Fatal("no recent games available")
	}

	fmt.Println("Recent games:")
	for i, g := range games {
		fmt.Printf("  [%d] %s  %s @ %s\n", i, g.GID, g.VisTeam, g.HomeTeam)
	}

	stdin := bufio.NewScanner(os.Stdin)
	fmt.Print("Pick a game: ")
	if !stdin.Scan() {
		return
	}
	idx := xutil.ParseIntDefault(strings.TrimSpace(stdin.Text()), -1)
	if idx < 0 || idx >= len(games) {
		log.Fatalf("invalid selection %q", stdin.Text())
	}
	game := games[idx]

	client := sse.NewClient(*server + "/game-replay")
	defer client.Close()

	params := sse.Params{GID: game.GID, Mode: *mode, UserID: *user, Interval: *interval}
	if err := client.Start(context.Background(), params); err != nil {
		log.Fatalf("start replay: %v", err)
	}
	fmt.Printf("Streaming %s (%s, every %ds). Commands: p=pause r=resume q=quit\n",
		game.GID, *mode, *interval)

	go printStream(client, *server, *speak)

	for stdin.Scan() {
		switch strings.TrimSpace(stdin.Text()) {
		case "p":
			if err := client.Pause(); err != nil {
				fmt.Println("pause:", err)
				continue
			}
			notifyControl(*server, "/pause", client.Params())
			fmt.Println("-- paused --")
		case "r":
			notifyControl(*server, "/resume", client.Params())
			if err := client.Resume(context.Background()); err != nil {
				fmt.Println("resume:", err)
				continue
			}
			fmt.Println("-- resumed --")
		case "q":
			return
		}
	}
}

func printStream(client *sse.Client, server string, speak bool) {
	for {
		select {
		case msg, ok := <-client.Messages():
			if !ok {
				fmt.Println("-- replay finished --")
				return
			}
			fmt.Println(msg)
			if speak {
				if url, err := synthesize(server, msg); err == nil {
					fmt.Println("   audio:", url)
				}
			}
		case err, ok := <-client.Errors():
			if !ok {
				return
			}
			fmt.Println("stream error:", err)
		}
	}
}

func fetchRecentGames(server string) ([]models.Game, error) {
	resp, err := http.Get(server + "/getLastTenGames")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	var games []models.Game
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, err
	}
	return games, nil
}

func notifyControl(server, path string, p sse.Params) {
	body, _ := json.Marshal(map[string]string{"gid": p.GID, "user_id": p.UserID})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+path, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("control request failed:", err)
		return
	}
	resp.Body.Close()
}

func synthesize(server, text string) (string, error) {
	body, _ := json.Marshal(models.SpeechRequest{Text: text})
	resp, err := http.Post(server+"/speech", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech returned %d", resp.StatusCode)
	}
	var out models.SpeechResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AudioURL, nil
}
