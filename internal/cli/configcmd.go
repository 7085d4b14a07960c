package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/skillpulse/internal/config"
)

type ConfigListCmd struct{}

func (c *ConfigListCmd) Run(ctx *Context) error {
	if ctx.Loader == nil {
		return errors.New("no config loader")
	}
	ctx.printf("Config file: %s\n\n", ctx.Loader.Path())
	flat := map[string]any{}
	flatten("", ctx.Loader.All(), flat)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := flat[k]
		if strings.HasSuffix(k, ".dsn") && v != "" {
			v = "(set)"
		}
		ctx.printf("  %-24s %v\n", k, v)
	}
	return nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok {
			flatten(key, m, out)
			continue
		}
		out[key] = v
	}
}

type ConfigSetCmd struct {
	Key   string `arg:"" help:"Setting key, e.g. timezone or notifications.enabled."`
	Value string `arg:"" help:"New value."`
}

func (c *ConfigSetCmd) Run(ctx *Context) error {
	if ctx.Loader == nil {
		return errors.New("no config loader")
	}
	if err := ctx.Loader.Save(c.Key, c.Value); err != nil {
		return fmt.Errorf("%w (settable: %s)", err, strings.Join(config.Settable, ", "))
	}
	ctx.printf("%s %s = %s\n", successStyle.Render("✓"), c.Key, c.Value)
	return nil
}
