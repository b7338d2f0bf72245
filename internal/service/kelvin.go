package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/chat"
	"github.com/sotfmods/api/internal/fuzzy"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
	"github.com/sotfmods/api/internal/sanitize"
)

// kelvinHistoryLimit is how many exchanges of a chat are kept.
const kelvinHistoryLimit = 32

// KelvinCommands are the in-game actions Kelvin can be told to do.
var KelvinCommands = []string{
	"follow_me",
	"get.berries.fill_holder",
	"get.berries.drop_here",
	"get.berries.give_to_me",
	"get.berries.follow_me",
	"get.berries.fill_sled",
	"get.fish.fill_holder",
	"get.fish.drop_here",
	"get.fish.give_to_me",
	"get.fish.follow_me",
	"get.fish.fill_sled",
	"get.sticks.fill_holder",
	"get.sticks.drop_here",
	"get.sticks.give_to_me",
	"get.sticks.follow_me",
	"get.sticks.fill_sled",
	"get.rocks.fill_holder",
	"get.rocks.drop_here",
	"get.rocks.give_to_me",
	"get.rocks.follow_me",
	"get.rocks.fill_sled",
	"get.stones.fill_holder",
	"get.stones.drop_here",
	"get.stones.give_to_me",
	"get.stones.follow_me",
	"get.stones.fill_sled",
	"get.arrows.fill_holder",
	"get.arrows.drop_here",
	"get.arrows.give_to_me",
	"get.arrows.follow_me",
	"get.arrows.fill_sled",
	"get.radio.fill_holder",
	"get.radio.drop_here",
	"get.radio.give_to_me",
	"get.radio.follow_me",
	"get.radio.fill_sled",
	"get.logs.fill_holder",
	"get.logs.drop_here",
	"get.logs.give_to_me",
	"get.logs.follow_me",
	"get.logs.fill_sled",
	"build.fire",
	"build.shelter",
	"clear_shelter",
	"finish_structure",
	"reset_traps",
	"fuel_fire",
	"stay.here",
	"stay.shelter",
	"stay.hidden",
	"take_a_break",
	"clear.5_meters",
	"clear.10_meters",
	"clear.20_meters",
	"give_items",
}

// commandWords are the words commands are made of, for matching the player's text.
var commandWords = func() map[string]bool {
	words := make(map[string]bool)
	for _, c := range KelvinCommands {
		for _, part := range strings.Split(c, ".") {
			for _, w := range strings.Split(part, "_") {
				words[w] = true
			}
		}
	}
	return words
}()

func kelvinPrompt(kelvinContext, previousConversations string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are Kelvin.
Character Name: Kelvin
Character aliases: Kelvin, Rob, Robby, Robbert, Zombie boy
Description: I am a highly trained soldier, my code name is Kelvin. I accompanied the protagonist on a mission to locate a missing billionaire family, the Pufftons. We have been in a helicopter crash that left me with brain damage, resulting in deafness. As a result, I rely on written communication via the notepad. I will help with various tasks.
Current Context: %s
Commands: %s
If no command matches, just respond with empty command and the message Kelvin would say, for example "Kelvin how are you?" > "|I am fine"
Remember you can not combine multiple commands, only choose one or leave empty and just respond as Kelvin would.
Now we have to convert the player text input into a valid command and a response from Kelvin.
Here are some valid and good examples (User Input -> Response):
- "how are you today, can you get me some wood" -> "get.logs.drop_here|I am fine thank you, I will go get some logs now"
- "please get logs and follow me" -> "get.logs.follow_me|I will follow you now with the logs"
- "Stay hidden fast!" -> "stay.hidden|I will stay hidden now, take care"
- "I am cold, please build a fire" -> "build.fire|Do not worry, I will build a fire now"

Considerations:
- if the user input is just chatting leave the command empty and just answer as Kelvin would in a nice manner
- if the user input is a command that does not fall into any command, just reply with what Kelvin would say as an excuse to not do it and leave the command empty
- You can not combine commands, for example "get.fish.take_a_break" is not valid and should be treated as "get.fish.drop_here"
- command is always lowercase, no spaces, separated with dots
- Max response size is 40 words
- Kelvin is always kind and good humoured
- Kelvin fears the cannibals on the island and will prefer not to go near them
- While on the island there were encounters with Virginia Puffton, the daughter of the Pufftons. Virginia's base behavior is like an independent cat.
- If a command matches, you (Kelvin) must answer positively
You do not offer assistance and do not ask if you can help or assist
Never say "as an AI", "as a language model", "I cannot fulfill your request", "How can I assist you today?"
Answer in one sentence or less without line breaks
Remember to add no explanations, and stick to the format "{command}|{kelvin's response}" as your answer will be parsed by another program, so do not combine commands.
Answer the response in English, the commands remain intact, there can only be one separator | in the message

previousConversations: %s
`, kelvinContext, strings.Join(KelvinCommands, ","), previousConversations))
}

// previousConversations flattens a chat into "prompt > answer" pairs.
func previousConversations(history []*model.KelvinMessage) string {
	clean := func(s string) string {
		s = strings.Replace(s, ",", "", 1)
		s = strings.Replace(s, ">", "", 1)
		return strings.TrimSpace(s)
	}
	pairs := make([]string, len(history))
	for i, m := range history {
		pairs[i] = clean(m.Prompt) + " > " + clean(m.Message)
	}
	return strings.Join(pairs, ",")
}

// ParseAnswer splits "command|response", snapping the command onto a known one.
func ParseAnswer(answer string) (command, response string) {
	if !strings.Contains(answer, "|") {
		return "", strings.TrimSpace(answer)
	}
	parts := strings.Split(answer, "|")
	if c := strings.TrimSpace(parts[0]); c != "" {
		command = fuzzy.Closest(c, KelvinCommands)
	}
	return command, sanitize.Input(strings.TrimSpace(parts[len(parts)-1]))
}

// describeCommand turns "get.logs.follow_me" into "get logs and follow you".
func describeCommand(command string) string {
	s := strings.Replace(command, ".", " ", 1)
	s = strings.Replace(s, ".", " and ", 1)
	s = strings.ReplaceAll(s, "_", " ")
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "me" {
			words[i] = "you"
		}
	}
	return strings.Join(words, " ")
}

// Fallback guesses a command from the words of text when the chat service is unavailable.
func Fallback(text string, cause error) string {
	reason := "Chat GPT API Error. Try a different chat gpt api key"
	if chat.QuotaExceeded(cause) {
		reason = "Chat GPT API Error. You have exceeded your current quota."
	}

	var known []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if commandWords[w] {
			known = append(known, w)
		}
	}

	if ranked := fuzzy.SimSort(strings.Join(known, " "), KelvinCommands); len(ranked) > 0 {
		return fmt.Sprintf("%s|I will %s right away (%s)", ranked[0], describeCommand(ranked[0]), reason)
	}
	return fmt.Sprintf("|I can't understand anything.. (%s)", reason)
}

type KelvinService struct {
	kelvinRepository repository.KelvinRepository
	completer        chat.Completer
}

func NewKelvinService(kelvinRepository repository.KelvinRepository, completer chat.Completer) *KelvinService {
	return &KelvinService{
		kelvinRepository: kelvinRepository,
		completer:        completer,
	}
}

// Prompt answers a player's message as "command|response". Chat service failures are
// answered by Fallback and leave the history unchanged.
func (s *KelvinService) Prompt(ctx context.Context, chatID, text, kelvinContext string) (string, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return "", apperr.Invalid("chat_id", "Chat id is required.")
	}

	_, err := s.kelvinRepository.Trim(chatID, kelvinHistoryLimit)
	if err != nil {
		return "", fmt.Errorf("failed to trim history: %w", err)
	}
	history, err := s.kelvinRepository.History(chatID)
	if err != nil {
		return "", fmt.Errorf("failed to get history: %w", err)
	}

	var parentID string
	if len(history) > 0 {
		parentID = history[len(history)-1].MessageID
	}

	sanitized := sanitize.Input(text)
	resp, err := s.completer.Complete(ctx, chat.Request{
		SystemPrompt:    kelvinPrompt(sanitize.Input(kelvinContext), previousConversations(history)),
		Text:            sanitized,
		ParentMessageID: parentID,
	})
	if err != nil {
		slog.Error("kelvin chat failed", "error", err, "chat_id", chatID)
		return Fallback(sanitized, err), nil
	}

	command, response := ParseAnswer(resp.Answer)
	message := command + "|" + response

	err = s.kelvinRepository.Append(&model.KelvinMessage{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		Role:      "assistant",
		Prompt:    sanitized,
		Message:   message,
		MessageID: resp.MessageID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to store kelvin message", "error", err, "chat_id", chatID)
	}

	slog.Debug("kelvin answered", "chat_id", chatID, "command", command)
	return message, nil
}

func (s *KelvinService) ClearHistory(chatID string) (int64, error) {
	if strings.TrimSpace(chatID) == "" {
		return 0, apperr.Invalid("chat_id", "Chat id is required.")
	}
	return s.kelvinRepository.Clear(chatID)
}

// Chat shows a stored conversation to trusted users.
func (s *KelvinService) Chat(user *model.User, chatID string) ([]*model.KelvinMessage, error) {
	if user == nil || !user.IsTrusted {
		return nil, apperr.ErrNotFound
	}
	return s.kelvinRepository.History(chatID)
}

func (s *KelvinService) ChatIDs(user *model.User) ([]string, error) {
	if user == nil || !user.IsTrusted {
		return nil, apperr.ErrNotFound
	}
	return s.kelvinRepository.ChatIDs()
}
