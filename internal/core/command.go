package core

import "strings"

// CommandKind describes what a client line asks the router to do.
type CommandKind int

const (
	// CommandChat is a plain chat line for the sender's room.
	CommandChat CommandKind = iota
	// CommandAddRoom registers a room (/add).
	CommandAddRoom
	// CommandJoinRoom moves the sender into a room (/join).
	CommandJoinRoom
	// CommandRemoveRoom unregisters a room and evicts its members (/rm).
	CommandRemoveRoom
	// CommandListRooms replies with every registered room (/list).
	CommandListRooms
	// CommandListUsers replies with the names sharing the sender's room (/users).
	CommandListUsers
	// CommandWhisper delivers text to one named user (!whisper).
	CommandWhisper
	// CommandUnknown is a slash line that matched no command.
	CommandUnknown
)

const (
	commandPrefix = '/'
	whisperPrefix = '!'
)

// Command is a parsed client line.
type Command struct {
	Kind   CommandKind
	Room   string
	Target string
	Text   string
}

var slashCommands = []struct {
	token string
	kind  CommandKind
}{
	{"add", CommandAddRoom},
	{"join", CommandJoinRoom},
	{"rm", CommandRemoveRoom},
	{"list", CommandListRooms},
	{"users", CommandListUsers},
}

// ParseCommand classifies a line received after the client's name was set.
func ParseCommand(line string) Command {
	if len(line) > 0 && line[0] == commandPrefix {
		for _, c := range slashCommands {
			if arg, ok := matchToken(line, commandPrefix, c.token); ok {
				return Command{Kind: c.kind, Room: strings.TrimSpace(arg)}
			}
		}
		return Command{Kind: CommandUnknown, Text: line}
	}

	if arg, ok := matchToken(line, whisperPrefix, "whisper"); ok {
		target, text, _ := strings.Cut(strings.TrimLeft(arg, " "), " ")
		return Command{Kind: CommandWhisper, Target: target, Text: text}
	}

	return Command{Kind: CommandChat, Text: line}
}

// matchToken reports whether line is prefix+token followed by a space, a
// newline or the end of the line, and returns what follows the separator.
func matchToken(line string, prefix byte, token string) (string, bool) {
	if len(line) == 0 || line[0] != prefix {
		return "", false
	}
	rest, ok := strings.CutPrefix(line[1:], token)
	if !ok {
		return "", false
	}
	if rest == "" {
		return "", true
	}
	switch rest[0] {
	case ' ', '\n':
		return rest[1:], true
	}
	return "", false
}
