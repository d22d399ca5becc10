// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/chatwidget/internal/chatbot"
	"github.com/jeranaias/chatwidget/internal/config"
)

// HandleConfig runs "config [show|get|set|reset|path|keys]".
func HandleConfig(env *Env, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(env, args)
	case "get":
		return configGet(env, args)
	case "set":
		return configSet(env, args)
	case "reset":
		return configSave(env, args, config.Default(), "reset")
	case "path":
		return configPath(env, args)
	case "keys":
		return configKeys(env, args)
	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown config subcommand",
			Example: "chatwidget config [show|get|set|reset|path|keys]",
		}
	}
}

func configShow(env *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("config show", env.Config).Print(env.Out)
	}

	fmt.Fprintln(env.Out, TitleStyle.Render("chatwidget configuration"))
	for _, key := range config.Keys {
		v, err := env.Config.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "%s%s\n", RenderLabel(key), ValueStyle.Render(formatValue(v)))
	}
	path := env.ConfigPath
	if path == "" {
		path = "(not saved)"
	}
	fmt.Fprintf(env.Out, "\n%s%s\n", RenderLabel("file"), DimStyle.Render(path))
	return nil
}

func configGet(env *Env, args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "chatwidget config get api_url")
	}
	v, err := env.Config.Get(args.ConfigKey)
	if err != nil {
		return keyError(args.ConfigKey, err)
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]interface{}{args.ConfigKey: v}).Print(env.Out)
	}
	fmt.Fprintln(env.Out, formatValue(v))
	return nil
}

func configSet(env *Env, args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "chatwidget config set theme light")
	}

	next := env.Config.Clone()
	value := args.ConfigVal
	if args.ConfigKey == "api_url" {
		value = chatbot.NormalizeBaseURL(value)
	}
	if err := next.Set(args.ConfigKey, value); err != nil {
		return keyError(args.ConfigKey, err)
	}
	next.SetDefaults()
	if err := next.Validate(); err != nil {
		return err
	}
	return configSave(env, args, next, "set")
}

// configSave validates cfg, writes it and makes it current.
func configSave(env *Env, args Args, cfg *config.Config, action string) error {
	if env.ConfigPath == "" {
		return NewCommandError("config", action, "settings are not saved in ephemeral mode", nil)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, env.ConfigPath); err != nil {
		return NewCommandError("config", action, "cannot write "+env.ConfigPath, err)
	}
	*env.Config = *cfg
	env.Logger.Info("config saved", "action", action, "key", args.ConfigKey, "path", env.ConfigPath)

	if args.JSON {
		return NewJSONResponse("config "+action, map[string]string{"path": env.ConfigPath}).Print(env.Out)
	}
	if action == "set" {
		v, _ := cfg.Get(args.ConfigKey)
		fmt.Fprintf(env.Out, "%s %s = %s\n", SuccessStyle.Render("[OK]"), args.ConfigKey, formatValue(v))
		return nil
	}
	fmt.Fprintf(env.Out, "%s configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	return nil
}

func configPath(env *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("config path", map[string]string{"path": env.ConfigPath}).Print(env.Out)
	}
	if env.ConfigPath == "" {
		fmt.Fprintln(env.Out, "(not saved)")
		return nil
	}
	fmt.Fprintln(env.Out, env.ConfigPath)
	return nil
}

func configKeys(env *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("config keys", config.Keys).Print(env.Out)
	}
	fmt.Fprintln(env.Out, strings.Join(config.Keys, "\n"))
	return nil
}

func keyError(key string, err error) error {
	return &ValidationError{
		Field:   "key",
		Value:   key,
		Reason:  err.Error(),
		Example: "chatwidget config keys",
	}
}

func formatValue(v interface{}) string {
	if s, ok := v.(string); ok && s == "" {
		return `""`
	}
	return fmt.Sprint(v)
}
