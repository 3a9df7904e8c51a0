package plugin

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/vaneta/internal/permission"
	"gopkg.in/yaml.v3"
)

// Descriptor kinds.
const (
	KindCommand = "command"
	KindContext = "context"
	KindEvent   = "event"
)

// Descriptor is the on-disk schema of a plugin file. Which fields apply
// depends on Kind.
type Descriptor struct {
	Kind        string             `yaml:"kind"`
	Name        string             `yaml:"name"`
	Handler     string             `yaml:"handler"`
	Description string             `yaml:"description"`
	Usage       string             `yaml:"usage"`
	Category    string             `yaml:"category"`
	Cooldown    int                `yaml:"cooldown"`
	Aliases     []string           `yaml:"aliases"`
	MemberPerms []string           `yaml:"memberPerms"`
	ClientPerms []string           `yaml:"clientPerms"`
	Slash       bool               `yaml:"slash"`
	Maintenance bool               `yaml:"maintenance"`
	Options     []OptionDescriptor `yaml:"options"`

	Target    string `yaml:"target"`
	Enabled   *bool  `yaml:"enabled"`
	Ephemeral bool   `yaml:"ephemeral"`

	Event string `yaml:"event"`
	Once  bool   `yaml:"once"`
}

// OptionDescriptor declares one slash command option.
type OptionDescriptor struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Type        string             `yaml:"type"`
	Required    bool               `yaml:"required"`
	Choices     []ChoiceDescriptor `yaml:"choices"`
	Options     []OptionDescriptor `yaml:"options"`
}

// ChoiceDescriptor is a fixed value offered for an option.
type ChoiceDescriptor struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

var optionTypes = map[string]discordgo.ApplicationCommandOptionType{
	"subcommand":       discordgo.ApplicationCommandOptionSubCommand,
	"subcommand_group": discordgo.ApplicationCommandOptionSubCommandGroup,
	"string":           discordgo.ApplicationCommandOptionString,
	"integer":          discordgo.ApplicationCommandOptionInteger,
	"boolean":          discordgo.ApplicationCommandOptionBoolean,
	"user":             discordgo.ApplicationCommandOptionUser,
	"channel":          discordgo.ApplicationCommandOptionChannel,
	"role":             discordgo.ApplicationCommandOptionRole,
	"mentionable":      discordgo.ApplicationCommandOptionMentionable,
	"number":           discordgo.ApplicationCommandOptionNumber,
	"attachment":       discordgo.ApplicationCommandOptionAttachment,
}

// Decode parses a descriptor file. Unknown fields are rejected.
func Decode(data []byte) (*Descriptor, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var desc Descriptor
	if err := dec.Decode(&desc); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return &desc, nil
}

// Entry is the result of building a descriptor. Exactly one field is set.
type Entry struct {
	Command *Command
	Context *ContextAction
	Event   *EventBinding
}

// Build validates desc and binds it to its handler from the catalog.
func Build(desc *Descriptor, handlers Handlers) (Entry, error) {
	name := strings.TrimSpace(desc.Name)
	if name == "" {
		return Entry{}, ErrMissingName
	}
	handler := desc.Handler
	if handler == "" {
		handler = name
	}

	switch strings.ToLower(desc.Kind) {
	case KindCommand:
		// Command names are case-insensitive, so is their default handler.
		if desc.Handler == "" {
			handler = strings.ToLower(name)
		}
		cmd, err := buildCommand(desc, name, handler, handlers)
		return Entry{Command: cmd}, err
	case KindContext:
		action, err := buildContext(desc, name, handler, handlers)
		return Entry{Context: action}, err
	case KindEvent:
		binding, err := buildEvent(desc, name, handler, handlers)
		return Entry{Event: binding}, err
	default:
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownKind, desc.Kind)
	}
}

func buildCommand(desc *Descriptor, name, handler string, handlers Handlers) (*Command, error) {
	execute, ok := handlers.Commands[handler]
	if !ok {
		return nil, fmt.Errorf("%w: command %q", ErrMissingHandler, handler)
	}

	memberPerms, err := permission.ParseAll(desc.MemberPerms)
	if err != nil {
		return nil, fmt.Errorf("member permissions: %w", err)
	}
	clientPerms, err := permission.ParseAll(desc.ClientPerms)
	if err != nil {
		return nil, fmt.Errorf("client permissions: %w", err)
	}

	options, err := buildOptions(desc.Options)
	if err != nil {
		return nil, err
	}

	name = strings.ToLower(name)
	var aliases []string
	for _, alias := range desc.Aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" || alias == name || slices.Contains(aliases, alias) {
			continue
		}
		aliases = append(aliases, alias)
	}

	return &Command{
		Name:        name,
		Description: desc.Description,
		Usage:       desc.Usage,
		Category:    strings.ToLower(desc.Category),
		Cooldown:    max(desc.Cooldown, 0),
		Aliases:     aliases,
		MemberPerms: memberPerms,
		ClientPerms: clientPerms,
		Slash:       desc.Slash,
		Maintenance: desc.Maintenance,
		Options:     options,
		Execute:     execute,
	}, nil
}

func buildOptions(descs []OptionDescriptor) ([]*discordgo.ApplicationCommandOption, error) {
	if len(descs) == 0 {
		return nil, nil
	}

	options := make([]*discordgo.ApplicationCommandOption, 0, len(descs))
	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: option without name", ErrInvalidOption)
		}
		typ, ok := optionTypes[strings.ToLower(d.Type)]
		if !ok {
			return nil, fmt.Errorf("%w: option %q has type %q", ErrInvalidOption, d.Name, d.Type)
		}

		sub, err := buildOptions(d.Options)
		if err != nil {
			return nil, err
		}

		var choices []*discordgo.ApplicationCommandOptionChoice
		for _, c := range d.Choices {
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
		}

		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        typ,
			Name:        strings.ToLower(d.Name),
			Description: d.Description,
			Required:    d.Required,
			Choices:     choices,
			Options:     sub,
		})
	}
	return options, nil
}

func buildContext(desc *Descriptor, name, handler string, handlers Handlers) (*ContextAction, error) {
	execute, ok := handlers.Contexts[handler]
	if !ok {
		return nil, fmt.Errorf("%w: context %q", ErrMissingHandler, handler)
	}

	target := TargetKind(strings.ToLower(desc.Target))
	if target == "" {
		target = TargetUser
	}
	if target != TargetUser && target != TargetMessage {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, desc.Target)
	}

	enabled := true
	if desc.Enabled != nil {
		enabled = *desc.Enabled
	}

	return &ContextAction{
		Name:        name,
		Description: desc.Description,
		Target:      target,
		Cooldown:    max(desc.Cooldown, 0),
		Enabled:     enabled,
		Ephemeral:   desc.Ephemeral,
		Maintenance: desc.Maintenance,
		Execute:     execute,
	}, nil
}

func buildEvent(desc *Descriptor, name, handler string, handlers Handlers) (*EventBinding, error) {
	kind := EventKind(desc.Event)
	if kind == "" {
		kind = EventKind(name)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}

	execute, ok := handlers.Events[handler]
	if !ok {
		return nil, fmt.Errorf("%w: event %q", ErrMissingHandler, handler)
	}

	return &EventBinding{
		Name:    name,
		Kind:    kind,
		Once:    desc.Once,
		Execute: execute,
	}, nil
}
