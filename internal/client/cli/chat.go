package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/studioportal/internal/client/client"
	"github.com/dmitrijs2005/studioportal/internal/client/models"
	"github.com/dmitrijs2005/studioportal/internal/portal"
)

const (
	chatHistory = 20
	chatQuit    = "/quit"
)

// Chat shows recent messages of a team, then relays new ones while sending
// each entered line. An empty line, /quit or EOF leaves the chat.
func (a *App) Chat(ctx context.Context, teamID string) error {
	history, err := a.api.Messages(ctx, teamID, chatHistory)
	if err != nil {
		return err
	}
	for _, m := range history {
		a.printMessage(m)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := a.api.Subscribe(ctx, portal.TeamTopic(teamID))
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.relay(ctx, sub)
	}()

	a.printf("Joined %s. Type a message, %s to leave.\n", teamID, chatQuit)
	err = a.chatInput(ctx, teamID)

	sub.Close()
	wg.Wait()
	if subErr := sub.Err(); subErr != nil && !errors.Is(subErr, context.Canceled) {
		err = errors.Join(err, subErr)
	}
	return err
}

func (a *App) chatInput(ctx context.Context, teamID string) error {
	for {
		line, err := a.reader.ReadString('\n')
		body := strings.TrimSpace(line)
		if body != "" && body != chatQuit {
			if _, perr := a.api.PostMessage(ctx, teamID, body); perr != nil {
				return perr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if body == "" || body == chatQuit {
			return nil
		}
	}
}

func (a *App) relay(ctx context.Context, sub *client.Subscription) {
	for ev := range sub.C {
		if ev.Type != portal.EventMessageInserted {
			continue
		}
		var m models.Message
		if err := json.Unmarshal(ev.Payload, &m); err != nil {
			a.log.Warn(ctx, "bad message payload", "error", err)
			continue
		}
		a.printMessage(m)
	}
}

func (a *App) printMessage(m models.Message) {
	a.printf("%s %s: %s\n", m.CreatedAt.Local().Format("15:04"), m.UserID, m.Body)
}
