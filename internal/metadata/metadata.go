package metadata

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"github.com/songfetch/songfetch-go/internal/song"
)

// songURLDescription is the TXXX frame description (MP3) carrying the
// catalog URL. FLAC files carry the same value in a SONGFETCH_URL
// Vorbis comment; MP3 files additionally get a standard WOAS frame.
const songURLDescription = "songfetch_url"

const flacURLComment = "SONGFETCH_URL"

// Manager reads and writes audio file tags
type Manager struct {
	config *Config
}

// Config contains tag writing configuration
type Config struct {
	EmbedArtwork bool
	ArtworkSize  int
}

// NewManager creates a new tag manager
func NewManager(config *Config) *Manager {
	if config == nil {
		config = &Config{
			EmbedArtwork: true,
			ArtworkSize:  800,
		}
	}
	return &Manager{
		config: config,
	}
}

// ReadSong reads the tags of an audio file into a song record. Files
// without usable tags (untagged, foreign format, unparsable) yield
// (nil, nil) so callers can fall back to other identification.
func (m *Manager) ReadSong(path string) (*song.Song, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return m.readMP3(path)
	case ".flac":
		return m.readFLAC(path)
	default:
		return nil, nil
	}
}

// WriteSong writes a song record into the file's tags (MP3 or FLAC).
// artwork may be nil; when present it is embedded as the front cover.
func (m *Manager) WriteSong(path string, s *song.Song, artwork []byte) error {
	if s == nil {
		return fmt.Errorf("song cannot be nil")
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return m.writeMP3(path, s, artwork)
	case ".flac":
		return m.writeFLAC(path, s, artwork)
	default:
		return fmt.Errorf("unsupported file format: %s", ext)
	}
}

// writeMP3 writes a song into an MP3 file's ID3v2 tag
func (m *Manager) writeMP3(path string, s *song.Song, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)

	if s.Name != "" {
		tag.SetTitle(s.Name)
	}
	if artist := joinArtists(s); artist != "" {
		tag.SetArtist(artist)
	}
	if s.AlbumName != "" {
		tag.SetAlbum(s.AlbumName)
	}
	if len(s.Genres) > 0 {
		tag.SetGenre(s.Genres[0])
	}
	if s.Year > 0 {
		tag.SetYear(strconv.Itoa(s.Year))
	}

	if s.AlbumArtist != "" {
		tag.DeleteFrames("TPE2")
		tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, s.AlbumArtist)
	}

	if s.TrackNumber > 0 {
		trackStr := strconv.Itoa(s.TrackNumber)
		if s.TracksCount > 0 {
			trackStr = fmt.Sprintf("%d/%d", s.TrackNumber, s.TracksCount)
		}
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, trackStr)
	}

	if s.DiscNumber > 0 {
		discStr := strconv.Itoa(s.DiscNumber)
		if s.DiscCount > 0 {
			discStr = fmt.Sprintf("%d/%d", s.DiscNumber, s.DiscCount)
		}
		tag.DeleteFrames("TPOS")
		tag.AddTextFrame("TPOS", id3v2.EncodingUTF8, discStr)
	}

	if s.ISRC != "" {
		tag.AddTextFrame(tag.CommonID("ISRC"), id3v2.EncodingUTF8, s.ISRC)
	}
	if s.Publisher != "" {
		tag.AddTextFrame(tag.CommonID("Publisher"), id3v2.EncodingUTF8, s.Publisher)
	}
	if s.CopyrightText != "" {
		tag.AddTextFrame(tag.CommonID("Copyright message"), id3v2.EncodingUTF8, s.CopyrightText)
	}

	if s.URL != "" {
		tag.AddFrame("WOAS", id3v2.UnknownFrame{Body: []byte(s.URL)})
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: songURLDescription,
			Value:       s.URL,
		})
	}

	if m.config.EmbedArtwork && len(artwork) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    http.DetectContentType(artwork),
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     artwork,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save MP3 tags: %w", err)
	}

	return nil
}

// readMP3 reads a song record out of an MP3 file's ID3v2 tag
func (m *Manager) readMP3(path string) (*song.Song, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, nil
	}
	defer tag.Close()

	if tag.Count() == 0 {
		return nil, nil
	}

	s := &song.Song{
		Name:      tag.Title(),
		AlbumName: tag.Album(),
	}

	if artist := tag.Artist(); artist != "" {
		s.Artists = splitArtists(artist)
		if len(s.Artists) > 0 {
			s.Artist = s.Artists[0]
		}
	}

	if genre := tag.Genre(); genre != "" {
		s.Genres = []string{genre}
	}

	s.Year = parseYear(tag.Year())

	if frames := tag.GetFrames(tag.CommonID("Band/Orchestra/Accompaniment")); len(frames) > 0 {
		if tf, ok := frames[0].(id3v2.TextFrame); ok {
			s.AlbumArtist = tf.Text
		}
	}

	if frames := tag.GetFrames(tag.CommonID("Track number/Position in set")); len(frames) > 0 {
		if tf, ok := frames[0].(id3v2.TextFrame); ok {
			s.TrackNumber, s.TracksCount = parseNumberPair(tf.Text)
		}
	}

	if frames := tag.GetFrames(tag.CommonID("Part of a set")); len(frames) > 0 {
		if tf, ok := frames[0].(id3v2.TextFrame); ok {
			s.DiscNumber, s.DiscCount = parseNumberPair(tf.Text)
		}
	}

	if frames := tag.GetFrames(tag.CommonID("ISRC")); len(frames) > 0 {
		if tf, ok := frames[0].(id3v2.TextFrame); ok {
			s.ISRC = tf.Text
		}
	}

	// Catalog URL: prefer the WOAS frame, fall back to our TXXX frame
	if frames := tag.GetFrames("WOAS"); len(frames) > 0 {
		if uf, ok := frames[0].(id3v2.UnknownFrame); ok {
			s.URL = strings.TrimRight(string(uf.Body), "\x00")
		}
	}
	if s.URL == "" {
		for _, frame := range tag.GetFrames(tag.CommonID("User defined text information frame")) {
			if udt, ok := frame.(id3v2.UserDefinedTextFrame); ok && udt.Description == songURLDescription {
				s.URL = udt.Value
				break
			}
		}
	}

	if !usable(s) {
		return nil, nil
	}

	return s, nil
}

// writeFLAC writes a song into a FLAC file's Vorbis comment block
func (m *Manager) writeFLAC(path string, s *song.Song, artwork []byte) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	// Rebuild the comment block from scratch so re-tagging never
	// accumulates duplicate comments.
	cmt := flacvorbis.New()

	if s.Name != "" {
		cmt.Add("TITLE", s.Name)
	}
	for _, artist := range s.Artists {
		cmt.Add("ARTIST", artist)
	}
	if len(s.Artists) == 0 && s.Artist != "" {
		cmt.Add("ARTIST", s.Artist)
	}
	if s.AlbumName != "" {
		cmt.Add("ALBUM", s.AlbumName)
	}
	if s.AlbumArtist != "" {
		cmt.Add("ALBUMARTIST", s.AlbumArtist)
	}
	if len(s.Genres) > 0 {
		cmt.Add("GENRE", s.Genres[0])
	}
	if s.Date != "" {
		cmt.Add("DATE", s.Date)
	} else if s.Year > 0 {
		cmt.Add("DATE", strconv.Itoa(s.Year))
	}
	if s.TrackNumber > 0 {
		cmt.Add("TRACKNUMBER", strconv.Itoa(s.TrackNumber))
	}
	if s.TracksCount > 0 {
		cmt.Add("TRACKTOTAL", strconv.Itoa(s.TracksCount))
	}
	if s.DiscNumber > 0 {
		cmt.Add("DISCNUMBER", strconv.Itoa(s.DiscNumber))
	}
	if s.DiscCount > 0 {
		cmt.Add("DISCTOTAL", strconv.Itoa(s.DiscCount))
	}
	if s.ISRC != "" {
		cmt.Add("ISRC", s.ISRC)
	}
	if s.Publisher != "" {
		cmt.Add("LABEL", s.Publisher)
	}
	if s.CopyrightText != "" {
		cmt.Add("COPYRIGHT", s.CopyrightText)
	}
	if s.URL != "" {
		cmt.Add(flacURLComment, s.URL)
	}

	res := cmt.Marshal()

	replaced := false
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			block.Data = res.Data
			replaced = true
			break
		}
	}
	if !replaced {
		f.Meta = append(f.Meta, &res)
	}

	if m.config.EmbedArtwork && len(artwork) > 0 {
		// Replace any existing cover rather than stacking pictures
		kept := make([]*flac.MetaDataBlock, 0, len(f.Meta))
		for _, block := range f.Meta {
			if block.Type != flac.Picture {
				kept = append(kept, block)
			}
		}
		f.Meta = append(kept, &flac.MetaDataBlock{
			Type: flac.Picture,
			Data: flacPictureBlock(artwork, http.DetectContentType(artwork)),
		})
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save FLAC file: %w", err)
	}

	return nil
}

// readFLAC reads a song record out of a FLAC file's Vorbis comments
func (m *Manager) readFLAC(path string) (*song.Song, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, nil
	}

	var cmt *flacvorbis.MetaDataBlockVorbisComment
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			parsed, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				continue
			}
			cmt = parsed
			break
		}
	}
	if cmt == nil {
		return nil, nil
	}

	s := &song.Song{
		Name:      flacFirst(cmt, "TITLE"),
		AlbumName: flacFirst(cmt, "ALBUM"),
	}

	if artists, err := cmt.Get("ARTIST"); err == nil && len(artists) > 0 {
		s.Artists = artists
		s.Artist = artists[0]
	}
	s.AlbumArtist = flacFirst(cmt, "ALBUMARTIST")
	if genre := flacFirst(cmt, "GENRE"); genre != "" {
		s.Genres = []string{genre}
	}
	if date := flacFirst(cmt, "DATE"); date != "" {
		s.Year = parseYear(date)
		if len(date) > 4 {
			s.Date = date
		}
	}

	s.TrackNumber, s.TracksCount = parseNumberPair(flacFirst(cmt, "TRACKNUMBER"))
	if total, err := strconv.Atoi(flacFirst(cmt, "TRACKTOTAL")); err == nil && s.TracksCount == 0 {
		s.TracksCount = total
	}
	s.DiscNumber, s.DiscCount = parseNumberPair(flacFirst(cmt, "DISCNUMBER"))
	if total, err := strconv.Atoi(flacFirst(cmt, "DISCTOTAL")); err == nil && s.DiscCount == 0 {
		s.DiscCount = total
	}

	s.ISRC = flacFirst(cmt, "ISRC")
	s.Publisher = flacFirst(cmt, "LABEL")
	s.URL = flacFirst(cmt, flacURLComment)

	if !usable(s) {
		return nil, nil
	}

	return s, nil
}

// flacFirst returns the first value of a Vorbis comment key
func flacFirst(cmt *flacvorbis.MetaDataBlockVorbisComment, key string) string {
	values, err := cmt.Get(key)
	if err != nil || len(values) == 0 {
		return ""
	}
	return values[0]
}

// usable reports whether a read tag carries enough identity to be
// worth returning.
func usable(s *song.Song) bool {
	return s.Name != "" || s.Artist != "" || s.URL != ""
}

// joinArtists flattens the artist list into a single ID3 text value
func joinArtists(s *song.Song) string {
	if len(s.Artists) > 0 {
		return strings.Join(s.Artists, "/")
	}
	return s.Artist
}

// splitArtists undoes joinArtists
func splitArtists(text string) []string {
	parts := strings.Split(text, "/")
	artists := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			artists = append(artists, trimmed)
		}
	}
	return artists
}

// parseYear extracts the year from a date string, which may be a bare
// year or a full "2006-01-02" date.
func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// parseNumberPair parses "3" or "3/12" track and disc values
func parseNumberPair(text string) (number, total int) {
	if text == "" {
		return 0, 0
	}
	parts := strings.SplitN(text, "/", 2)
	number, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		total, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return number, total
}

// flacPictureBlock builds a FLAC METADATA_BLOCK_PICTURE payload:
// picture type, MIME, description, dimensions (zero, decoder derives
// them), then the image data, all lengths big-endian.
func flacPictureBlock(imageData []byte, mimeType string) []byte {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	description := "Front Cover"

	size := 4 + 4 + len(mimeType) + 4 + len(description) + 4 + 4 + 4 + 4 + 4 + len(imageData)
	data := make([]byte, size)

	pos := 0

	// Picture type 3 = front cover
	writeUint32BE(data[pos:], 3)
	pos += 4

	writeUint32BE(data[pos:], uint32(len(mimeType)))
	pos += 4
	copy(data[pos:], mimeType)
	pos += len(mimeType)

	writeUint32BE(data[pos:], uint32(len(description)))
	pos += 4
	copy(data[pos:], description)
	pos += len(description)

	// Width, height, color depth, color count
	writeUint32BE(data[pos:], 0)
	pos += 4
	writeUint32BE(data[pos:], 0)
	pos += 4
	writeUint32BE(data[pos:], 0)
	pos += 4
	writeUint32BE(data[pos:], 0)
	pos += 4

	writeUint32BE(data[pos:], uint32(len(imageData)))
	pos += 4
	copy(data[pos:], imageData)

	return data
}

// writeUint32BE writes a uint32 in big-endian format
func writeUint32BE(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
