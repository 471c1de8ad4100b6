// Package player owns the playback session state and the controller that
// glues gestures, thumbnails, subtitles, the overlay and the render loop
// into one embeddable control.
package player

// Engine is the collaborator interface to the native media decode/render
// pipeline. All actual media effect goes through here; the session is the
// single writer and never races with external mutation.
type Engine interface {
	Play()
	Pause()
	Seek(timecode float64)
	SetMuted(muted bool)

	// CurrentTime returns the media clock position in seconds
	CurrentTime() float64

	// Duration returns the total duration; false until metadata has loaded
	Duration() (float64, bool)

	// Callback registration. Each is called at most once per controller.
	OnEnded(fn func())
	OnTimeUpdate(fn func(timecode float64))
	OnMetadataLoaded(fn func())
}

// SourceLoader is an optional Engine capability for engines that load
// media sources themselves when the control's src changes.
type SourceLoader interface {
	LoadSource(url string)
}

// FullscreenToggler is an optional Engine capability for hosts that expose
// a fullscreen API. Without it the fullscreen flag is presentation-only.
type FullscreenToggler interface {
	SetFullscreen(fullscreen bool)
}
