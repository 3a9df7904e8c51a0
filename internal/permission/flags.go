package permission

import (
	"fmt"
	"strings"
)

// flag describes one permission bit: the identifier plugins declare it by and the
// label shown to users.
type flag struct {
	bit   int64
	name  string
	label string
}

var flags = []flag{
	{1 << 0, "CreateInstantInvite", "Create Instant Invite"},
	{1 << 1, "KickMembers", "Kick Members"},
	{1 << 2, "BanMembers", "Ban Members"},
	{1 << 3, "Administrator", "Administrator"},
	{1 << 4, "ManageChannels", "Manage Channels"},
	{1 << 5, "ManageGuild", "Manage Server"},
	{1 << 6, "AddReactions", "Add Reactions"},
	{1 << 7, "ViewAuditLog", "View Audit Logs"},
	{1 << 8, "PrioritySpeaker", "Priority Speaker"},
	{1 << 9, "Stream", "Stream Video"},
	{1 << 10, "ViewChannel", "View Channel"},
	{1 << 11, "SendMessages", "Send Messages"},
	{1 << 12, "SendTTSMessages", "Send TTS Messages"},
	{1 << 13, "ManageMessages", "Manage Messages"},
	{1 << 14, "EmbedLinks", "Embed Links"},
	{1 << 15, "AttachFiles", "Attach Files"},
	{1 << 16, "ReadMessageHistory", "Read Message History"},
	{1 << 17, "MentionEveryone", "Mention Everyone"},
	{1 << 18, "UseExternalEmojis", "Use External Emojis"},
	{1 << 19, "ViewGuildInsights", "View Guild Insights"},
	{1 << 20, "Connect", "Connect"},
	{1 << 21, "Speak", "Speak"},
	{1 << 22, "MuteMembers", "Mute Members"},
	{1 << 23, "DeafenMembers", "Deafen Members"},
	{1 << 24, "MoveMembers", "Move Members"},
	{1 << 25, "UseVAD", "Use Voice Activity"},
	{1 << 26, "ChangeNickname", "Change Nickname"},
	{1 << 27, "ManageNicknames", "Manage Nicknames"},
	{1 << 28, "ManageRoles", "Manage Roles"},
	{1 << 29, "ManageWebhooks", "Manage Webhooks"},
	{1 << 30, "ManageGuildExpressions", "Manage Expressions"},
	{1 << 31, "UseApplicationCommands", "Use Application Commands"},
	{1 << 32, "RequestToSpeak", "Request to Speak"},
	{1 << 33, "ManageEvents", "Manage Events"},
	{1 << 34, "ManageThreads", "Manage Threads"},
	{1 << 35, "CreatePublicThreads", "Create Public Threads"},
	{1 << 36, "CreatePrivateThreads", "Create Private Threads"},
	{1 << 37, "UseExternalStickers", "Use External Stickers"},
	{1 << 38, "SendMessagesInThreads", "Send Messages in Threads"},
	{1 << 39, "UseEmbeddedActivities", "Use Activities"},
	{1 << 40, "ModerateMembers", "Timeout Members"},
	{1 << 41, "ViewCreatorMonetizationAnalytics", "View Creator Monetization Analytics"},
	{1 << 42, "UseSoundboard", "Use Soundboard"},
	{1 << 43, "CreateGuildExpressions", "Create Expressions"},
	{1 << 44, "CreateEvents", "Create Events"},
	{1 << 45, "UseExternalSounds", "Use External Sounds"},
	{1 << 46, "SendVoiceMessages", "Send Voice Messages"},
	{1 << 49, "SendPolls", "Create Polls"},
	{1 << 50, "UseExternalApps", "Use External Apps"},
}

// Voice-class permissions, checked against the actor's voice channel.
const (
	Connect int64 = 1 << 20
	Speak   int64 = 1 << 21
)

var (
	byName  = make(map[string]flag, len(flags))
	byBit   = make(map[int64]flag, len(flags))
	isVoice = map[int64]bool{Connect: true, Speak: true}
)

func init() {
	for _, f := range flags {
		byName[strings.ToLower(f.name)] = f
		byBit[f.bit] = f
	}
}

// Parse returns the permission bit for a flag name such as "ManageMessages".
// Names are matched case-insensitively.
func Parse(name string) (int64, error) {
	f, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown permission %q", name)
	}
	return f.bit, nil
}

// ParseAll parses every name, preserving order.
func ParseAll(names []string) ([]int64, error) {
	bits := make([]int64, 0, len(names))
	for _, name := range names {
		bit, err := Parse(name)
		if err != nil {
			return nil, err
		}
		bits = append(bits, bit)
	}
	return bits, nil
}

// Label returns the human-readable name of a permission bit.
func Label(bit int64) string {
	if f, ok := byBit[bit]; ok {
		return f.label
	}
	return fmt.Sprintf("0x%x", bit)
}

// IsVoice reports whether bit is evaluated against a voice channel.
func IsVoice(bit int64) bool {
	return isVoice[bit]
}
