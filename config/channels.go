package config

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/pkg/errors"
)

// ChannelCategory groups Telegram channels that share a reliability grade.
type ChannelCategory struct {
	Description string   `json:"description,omitempty"`
	Reliability string   `json:"reliability"`
	Channels    []string `json:"channels"`
}

// ChannelCatalog is the telegram_channels.json layout: category name to
// category.
type ChannelCatalog struct {
	Channels map[string]ChannelCategory `json:"channels"`
}

// ChannelInfo is where a channel sits in the catalog.
type ChannelInfo struct {
	Category    string
	Reliability string
}

// LoadChannelCatalog reads a catalog file. A missing file yields ErrNotFound.
func LoadChannelCatalog(path string) (*ChannelCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "channel catalog %s", path)
		}
		return nil, errors.Wrapf(err, "read channel catalog %s", path)
	}
	var catalog ChannelCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrapf(errors.ErrParse, "channel catalog %s: %v", path, err)
	}
	if catalog.Channels == nil {
		catalog.Channels = map[string]ChannelCategory{}
	}
	return &catalog, nil
}

// Categories returns category names in sorted order.
func (c *ChannelCatalog) Categories() []string {
	names := make([]string, 0, len(c.Channels))
	for name := range c.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All lists every channel, category by category in sorted category order.
func (c *ChannelCatalog) All() []string {
	var out []string
	for _, name := range c.Categories() {
		out = append(out, c.Channels[name].Channels...)
	}
	return out
}

// Lookup finds the category of a channel. Categories without a reliability
// grade count as medium.
func (c *ChannelCatalog) Lookup(channel string) (ChannelInfo, bool) {
	for _, name := range c.Categories() {
		cat := c.Channels[name]
		for _, ch := range cat.Channels {
			if ch != channel {
				continue
			}
			reliability := cat.Reliability
			if reliability == "" {
				reliability = consts.ReliabilityMedium
			}
			return ChannelInfo{Category: name, Reliability: reliability}, true
		}
	}
	return ChannelInfo{}, false
}
