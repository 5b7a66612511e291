package controller

import (
	"abrlevels/internal/event"
	"abrlevels/internal/level"
)

// Levels returns the current quality-ordered level sequence. An empty
// sequence means no levels are available.
func (c *LevelController) Levels() []*level.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.levels) == 0 {
		return nil
	}
	return snapshotLevels(c.levels)
}

// Level returns the currently selected level index, -1 when none.
func (c *LevelController) Level() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLevelIndex
}

// SetLevel selects the level at index. Negative indices are rejected with
// a fatal error notification; too-large indices are clamped with a
// non-fatal one.
func (c *LevelController) SetLevel(index int) {
	c.command(func() { c.selectLevel(index) })
}

// ManualLevel returns the manual override index, -1 in automatic mode.
func (c *LevelController) ManualLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manualLevelIndex
}

// SetManualLevel sets the manual override. -1 returns to automatic mode.
// The very first manual assignment also seeds the remembered start level
// when none was set yet.
func (c *LevelController) SetManualLevel(index int) {
	c.command(func() {
		c.manualLevelIndex = index
		if c.startLevel == nil {
			v := index
			c.startLevel = &v
		}
		if index != -1 {
			c.selectLevel(index)
		}
	})
}

// FirstLevel returns the seed index for the initial automatic choice.
func (c *LevelController) FirstLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.firstLevelIdx
}

// SetFirstLevel overrides the first-level seed.
func (c *LevelController) SetFirstLevel(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.firstLevelIdx = index
}

// StartLevel returns the resolved start level: explicit override, else
// configured start level, else the first automatic suggestion.
func (c *LevelController) StartLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveStartLevel()
}

// SetStartLevel sets the explicit start-level override.
func (c *LevelController) SetStartLevel(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLevel = &index
}

// NextLoadLevel returns the level the next load should target: the manual
// override when set, the automatic suggestion otherwise.
func (c *LevelController) NextLoadLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.manualLevelIndex != -1 {
		return c.manualLevelIndex
	}
	if c.cfg.Auto != nil {
		return c.cfg.Auto.NextAutoLevel()
	}
	return c.currentLevelIndex
}

// SetNextLoadLevel selects index and, in automatic mode, feeds it back to
// the automatic selection collaborator.
func (c *LevelController) SetNextLoadLevel(index int) {
	c.command(func() {
		c.selectLevel(index)
		if c.manualLevelIndex == -1 && c.cfg.Auto != nil {
			c.cfg.Auto.SetNextAutoLevel(index)
		}
	})
}

// StartLoad permits load dispatching and selects the start level.
func (c *LevelController) StartLoad() {
	c.command(c.startLoad)
}

// StopLoad halts load dispatching and resets both error counters on every
// level, so resumed loading is treated as a fresh attempt.
func (c *LevelController) StopLoad() {
	c.command(func() {
		c.cfg.Loader.StopLoad()
		for _, lvl := range c.levels {
			lvl.LoadError = 0
			lvl.FragmentError = 0
		}
	})
}

// RemoveLevel removes one fallback URL of a level, identified by
// (levelIndex, urlID). When the level has a single fallback, the whole
// level is dropped and the steering collaborator is told to forget the
// pathway. Either way an updated-levels notification is emitted.
func (c *LevelController) RemoveLevel(levelIndex, urlID int) {
	c.command(func() {
		if levelIndex < 0 || levelIndex >= len(c.levels) {
			c.log.Warn("remove level out of range", "level", levelIndex)
			return
		}
		lvl := c.levels[levelIndex]
		if urlID < 0 || urlID >= len(lvl.URLs) {
			c.log.Warn("remove level fallback out of range", "level", levelIndex, "urlId", urlID)
			return
		}

		if len(lvl.URLs) > 1 {
			activeURL := lvl.URI()
			lvl.URLs = append(lvl.URLs[:urlID], lvl.URLs[urlID+1:]...)
			lvl.AudioGroups = append(lvl.AudioGroups[:urlID], lvl.AudioGroups[urlID+1:]...)
			lvl.TextGroups = append(lvl.TextGroups[:urlID], lvl.TextGroups[urlID+1:]...)
			lvl.URLID = 0
			if lvl.URI() != activeURL {
				// The active fallback changed; its playlist no longer
				// applies and the level needs a fresh load.
				lvl.Details = nil
				if levelIndex == c.currentLevelIndex {
					c.requestLoad(levelIndex, nil)
				}
			}
			c.log.Info("removed level fallback", "level", levelIndex, "urlId", urlID, "remaining", len(lvl.URLs))
		} else {
			c.levels = append(c.levels[:levelIndex], c.levels[levelIndex+1:]...)
			if c.cfg.Steering != nil {
				c.cfg.Steering.OnLevelRemoved(lvl.PathwayID)
			}
			c.log.Info("removed level", "level", levelIndex, "pathway", lvl.PathwayID)
		}

		c.cfg.Metrics.LevelRemoved()
		c.emit(event.LevelsUpdated, event.LevelsUpdatedData{Levels: snapshotLevels(c.levels)})
	})
}
