package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Coxinelcops/Test/internal/riot"
	"github.com/Coxinelcops/Test/internal/tracker"
	"github.com/Coxinelcops/Test/internal/twitch"
)

// Embed colors
const (
	colorPresence  = 0x00FF41
	colorTwitch    = 0x9146FF
	colorEvent     = 0x00AE86
	colorReminder  = 0xFFA500
	colorEventLive = 0xFF0000
)

// ChampionResolver turns champion ids into display data
type ChampionResolver interface {
	Lookup(ctx context.Context, championID int) riot.Champion
}

// FormatViewerCount shortens counts of 1000 and more to "Nk"
func FormatViewerCount(count int) string {
	if count >= 1000 {
		return fmt.Sprintf("%dk", count/1000)
	}
	return fmt.Sprintf("%d", count)
}

// FormatDate renders an event date in loc
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Monday 2 January 2006 at 15:04")
}

// PresenceEmbed builds the "game detected" embed. The watched player is
// starred in the rosters.
func PresenceEmbed(ctx context.Context, champions ChampionResolver, p tracker.WatchedPlayer, game *riot.ActiveGame, now time.Time) *discordgo.MessageEmbed {
	queueName := riot.GetQueueName(game.QueueID)
	duration := (game.GameLength + 30) / 60

	champion := riot.Champion{Name: "Unknown"}
	if me := game.FindParticipant(p.PUUID); me != nil {
		champion = champions.Lookup(ctx, me.ChampionID)
	}

	roster := func(teamID int) string {
		var names []string
		for _, part := range game.Team(teamID) {
			marker := ""
			if part.PUUID == p.PUUID {
				marker = " ⭐"
			}
			names = append(names, fmt.Sprintf("**%s**%s", champions.Lookup(ctx, part.ChampionID).Name, marker))
		}
		return strings.Join(names, " • ")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "GAME DETECTED!",
		Color:       colorPresence,
		Description: fmt.Sprintf("**%s** is playing **%s** in **%s**", p.RiotID, champion.Name, queueName),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Info",
				Value: fmt.Sprintf("Duration: %d min\nRegion: %s\nMode: %s",
					duration, strings.ToUpper(riot.ShortRegion(p.Platform)), queueName),
				Inline: true,
			},
			{
				Name:  "Teams",
				Value: fmt.Sprintf("🔴 %s\n\n⚡ **VS** ⚡\n\n🔵 %s", roster(riot.TeamRed), roster(riot.TeamBlue)),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("GL HF! • Deleted in %d min", int(PresenceDeleteAfter.Minutes())),
		},
		Timestamp: now.Format(time.RFC3339),
	}

	if p.StreamURL != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Stream",
			Value:  fmt.Sprintf("[Watch now](%s)", p.StreamURL),
			Inline: true,
		})
	}
	if champion.IconURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: champion.IconURL}
	}
	return embed
}

// StreamEmbed builds the live stream embed. Refreshes carry the time of the
// last update in the footer.
func StreamEmbed(s twitch.Stream, loc *time.Location, now time.Time, refresh bool) *discordgo.MessageEmbed {
	login := strings.ToLower(s.UserLogin)
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔴 %s is live!", s.UserName),
		Description: s.Title,
		URL:         "https://twitch.tv/" + login,
		Color:       colorTwitch,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👥 Viewers", Value: fmt.Sprintf("**%s** viewers", FormatViewerCount(s.ViewerCount)), Inline: true},
		},
	}
	if s.GameName != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "🎮 Game", Value: s.GameName, Inline: true})
	}
	if thumb := s.Thumbnail(1280, 720); thumb != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: thumb}
	}

	started := s.StartedAt.In(loc).Format("15:04")
	if refresh {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Started at %s • Last update: %s", started, now.In(loc).Format("15:04")),
		}
	} else {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Started at %s • Updated every 2 min", started),
		}
	}
	return embed
}

func eventDetails(ev tracker.Event, loc *time.Location, detailed bool) []*discordgo.MessageEmbedField {
	fields := []*discordgo.MessageEmbedField{
		{Name: "📅 Date", Value: FormatDate(ev.Start, loc), Inline: true},
	}
	if ev.Category != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "🎮 Category", Value: tracker.CategoryLabel(ev.Category), Inline: true})
	}
	if ev.Location != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "📍 Location", Value: ev.Location, Inline: true})
	}
	if ev.Stream != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "📺 Stream", Value: ev.Stream})
	}
	if detailed && ev.Description != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "📝 Description", Value: ev.Description})
	}
	return fields
}

// EventEmbed builds the announcement embed of an event
func EventEmbed(ev tracker.Event, loc *time.Location, detailed bool) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "🎉 " + ev.Name,
		Color:     colorEvent,
		Fields:    eventDetails(ev, loc, detailed),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Created by " + ev.Creator},
		Timestamp: ev.CreatedAt.Format(time.RFC3339),
	}
	if detailed {
		embed.Footer.Text = fmt.Sprintf("Event #%d • Created by %s", ev.ID, ev.Creator)
	}
	if tracker.ValidateImage(ev.Image) == nil && ev.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: ev.Image}
	}
	return embed
}

// ReminderEmbed builds a reminder embed; minutesBefore 0 means the event starts now
func ReminderEmbed(ev tracker.Event, minutesBefore int, loc *time.Location, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("⏰ %s - In %d minutes", ev.Name, minutesBefore),
		Description: fmt.Sprintf("The event starts in %d minutes!", minutesBefore),
		Color:       colorReminder,
		Fields:      eventDetails(ev, loc, false),
		Timestamp:   now.Format(time.RFC3339),
	}
	embed.Fields[0].Name = "📅 Start"
	if minutesBefore == 0 {
		embed.Title = "🔴 LIVE NOW - " + ev.Name
		embed.Description = "The event starts now!"
		embed.Color = colorEventLive
	}
	if tracker.ValidateImage(ev.Image) == nil && ev.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: ev.Image}
	}
	return embed
}
