package matroska

import (
	"fmt"

	"github.com/ristryder/gse/containers/ebml"
)

// Element is a top-level element located in the container.
type Element struct {
	// HeaderPosition is the absolute offset of the element's header.
	HeaderPosition int64
	DataPosition   int64
	DataSize       int64
	Id             ElementId
	UnknownSize    bool
}

type ElementId uint32

const (
	ElementNone ElementId = 0

	ElementEbml    ElementId = 0x1A45DFA3
	ElementSegment ElementId = 0x18538067
	ElementVoid    ElementId = 0xEC
	ElementCrc32   ElementId = 0xBF

	ElementSeekHead     ElementId = 0x114D9B74
	ElementSeek         ElementId = 0x4DBB
	ElementSeekId       ElementId = 0x53AB
	ElementSeekPosition ElementId = 0x53AC

	ElementInfo          ElementId = 0x1549A966
	ElementTimecodeScale ElementId = 0x2AD7B1
	ElementDuration      ElementId = 0x4489
	ElementTitle         ElementId = 0x7BA9
	ElementMuxingApp     ElementId = 0x4D80
	ElementWritingApp    ElementId = 0x5741
	ElementDateUtc       ElementId = 0x4461
	ElementSegmentUid    ElementId = 0x73A4

	ElementTracks      ElementId = 0x1654AE6B
	ElementTrackEntry  ElementId = 0xAE
	ElementTrackNumber ElementId = 0xD7
	ElementTrackUid    ElementId = 0x73C5
	ElementTrackType   ElementId = 0x83
	ElementFlagEnabled ElementId = 0xB9
	ElementFlagDefault ElementId = 0x88
	ElementFlagForced  ElementId = 0x55AA
	ElementFlagLacing  ElementId = 0x9C

	ElementDefaultDuration      ElementId = 0x23E383
	ElementName                 ElementId = 0x536E
	ElementLanguage             ElementId = 0x22B59C
	ElementCodecId              ElementId = 0x86
	ElementCodecPrivate         ElementId = 0x63A2
	ElementCodecName            ElementId = 0x258688
	ElementVideo                ElementId = 0xE0
	ElementPixelWidth           ElementId = 0xB0
	ElementPixelHeight          ElementId = 0xBA
	ElementAudio                ElementId = 0xE1
	ElementContentEncodings     ElementId = 0x6D80
	ElementContentEncoding      ElementId = 0x6240
	ElementContentEncodingOrder ElementId = 0x5031
	ElementContentEncodingScope ElementId = 0x5032
	ElementContentEncodingType  ElementId = 0x5033
	ElementContentCompression   ElementId = 0x5034
	ElementContentCompAlgo      ElementId = 0x4254
	ElementContentCompSettings  ElementId = 0x4255
	ElementContentEncryption    ElementId = 0x5035

	ElementCluster           ElementId = 0x1F43B675
	ElementTimecode          ElementId = 0xE7
	ElementSilentTracks      ElementId = 0x5854
	ElementPosition          ElementId = 0xA7
	ElementPrevSize          ElementId = 0xAB
	ElementSimpleBlock       ElementId = 0xA3
	ElementBlockGroup        ElementId = 0xA0
	ElementBlock             ElementId = 0xA1
	ElementBlockAdditions    ElementId = 0x75A1
	ElementBlockDuration     ElementId = 0x9B
	ElementReferencePriority ElementId = 0xFA
	ElementReferenceBlock    ElementId = 0xFB
	ElementCodecState        ElementId = 0xA4
	ElementDiscardPadding    ElementId = 0x75A2

	ElementCues       ElementId = 0x1C53BB6B
	ElementCuePoint   ElementId = 0xBB
	ElementTags       ElementId = 0x1254C367
	ElementTag        ElementId = 0x7373
	ElementSimpleTag  ElementId = 0x67C8
	ElementTargets    ElementId = 0x63C0
	ElementTagName    ElementId = 0x45A3
	ElementTagString  ElementId = 0x4487
	ElementTagBinary  ElementId = 0x4485
	ElementTagDefault ElementId = 0x4484

	ElementAttachments     ElementId = 0x1941A469
	ElementAttachedFile    ElementId = 0x61A7
	ElementFileDescription ElementId = 0x467E
	ElementFileName        ElementId = 0x466E
	ElementFileMimeType    ElementId = 0x4660
	ElementFileData        ElementId = 0x465C
	ElementFileUid         ElementId = 0x46AE

	ElementChapters           ElementId = 0x1043A770
	ElementEditionEntry       ElementId = 0x45B9
	ElementEditionUid         ElementId = 0x45BC
	ElementEditionFlagHidden  ElementId = 0x45BD
	ElementEditionFlagDefault ElementId = 0x45DB
	ElementEditionFlagOrdered ElementId = 0x45DD
	ElementChapterAtom        ElementId = 0xB6
	ElementChapterUid         ElementId = 0x73C4
	ElementChapterTimeStart   ElementId = 0x91
	ElementChapterTimeEnd     ElementId = 0x92
	ElementChapterFlagHidden  ElementId = 0x98
	ElementChapterFlagEnabled ElementId = 0x4598
	ElementChapterDisplay     ElementId = 0x80
	ElementChapString         ElementId = 0x85
	ElementChapLanguage       ElementId = 0x437C
	ElementChapCountry        ElementId = 0x437E
)

type elementInfo struct {
	name     string
	dataType ebml.Type
}

// elements is the register of every element this package knows by name.
// Unknown ids are still decoded, as binary.
var elements = map[ElementId]elementInfo{
	ElementEbml:    {"EBML", ebml.TypeMaster},
	ElementSegment: {"Segment", ebml.TypeMaster},
	ElementVoid:    {"Void", ebml.TypeBinary},
	ElementCrc32:   {"CRC-32", ebml.TypeBinary},

	ElementSeekHead:     {"SeekHead", ebml.TypeMaster},
	ElementSeek:         {"Seek", ebml.TypeMaster},
	ElementSeekId:       {"SeekID", ebml.TypeBinary},
	ElementSeekPosition: {"SeekPosition", ebml.TypeUint},

	ElementInfo:          {"Info", ebml.TypeMaster},
	ElementTimecodeScale: {"TimecodeScale", ebml.TypeUint},
	ElementDuration:      {"Duration", ebml.TypeFloat},
	ElementTitle:         {"Title", ebml.TypeUTF8},
	ElementMuxingApp:     {"MuxingApp", ebml.TypeUTF8},
	ElementWritingApp:    {"WritingApp", ebml.TypeUTF8},
	ElementDateUtc:       {"DateUTC", ebml.TypeDate},
	ElementSegmentUid:    {"SegmentUID", ebml.TypeBinary},

	ElementTracks:      {"Tracks", ebml.TypeMaster},
	ElementTrackEntry:  {"TrackEntry", ebml.TypeMaster},
	ElementTrackNumber: {"TrackNumber", ebml.TypeUint},
	ElementTrackUid:    {"TrackUID", ebml.TypeUint},
	ElementTrackType:   {"TrackType", ebml.TypeUint},
	ElementFlagEnabled: {"FlagEnabled", ebml.TypeUint},
	ElementFlagDefault: {"FlagDefault", ebml.TypeUint},
	ElementFlagForced:  {"FlagForced", ebml.TypeUint},
	ElementFlagLacing:  {"FlagLacing", ebml.TypeUint},

	ElementDefaultDuration:      {"DefaultDuration", ebml.TypeUint},
	ElementName:                 {"Name", ebml.TypeUTF8},
	ElementLanguage:             {"Language", ebml.TypeString},
	ElementCodecId:              {"CodecID", ebml.TypeString},
	ElementCodecPrivate:         {"CodecPrivate", ebml.TypeBinary},
	ElementCodecName:            {"CodecName", ebml.TypeUTF8},
	ElementVideo:                {"Video", ebml.TypeMaster},
	ElementPixelWidth:           {"PixelWidth", ebml.TypeUint},
	ElementPixelHeight:          {"PixelHeight", ebml.TypeUint},
	ElementAudio:                {"Audio", ebml.TypeMaster},
	ElementContentEncodings:     {"ContentEncodings", ebml.TypeMaster},
	ElementContentEncoding:      {"ContentEncoding", ebml.TypeMaster},
	ElementContentEncodingOrder: {"ContentEncodingOrder", ebml.TypeUint},
	ElementContentEncodingScope: {"ContentEncodingScope", ebml.TypeUint},
	ElementContentEncodingType:  {"ContentEncodingType", ebml.TypeUint},
	ElementContentCompression:   {"ContentCompression", ebml.TypeMaster},
	ElementContentCompAlgo:      {"ContentCompAlgo", ebml.TypeUint},
	ElementContentCompSettings:  {"ContentCompSettings", ebml.TypeBinary},
	ElementContentEncryption:    {"ContentEncryption", ebml.TypeMaster},

	ElementCluster:           {"Cluster", ebml.TypeMaster},
	ElementTimecode:          {"Timecode", ebml.TypeUint},
	ElementSilentTracks:      {"SilentTracks", ebml.TypeMaster},
	ElementPosition:          {"Position", ebml.TypeUint},
	ElementPrevSize:          {"PrevSize", ebml.TypeUint},
	ElementSimpleBlock:       {"SimpleBlock", ebml.TypeBinary},
	ElementBlockGroup:        {"BlockGroup", ebml.TypeMaster},
	ElementBlock:             {"Block", ebml.TypeBinary},
	ElementBlockAdditions:    {"BlockAdditions", ebml.TypeMaster},
	ElementBlockDuration:     {"BlockDuration", ebml.TypeUint},
	ElementReferencePriority: {"ReferencePriority", ebml.TypeUint},
	ElementReferenceBlock:    {"ReferenceBlock", ebml.TypeInt},
	ElementCodecState:        {"CodecState", ebml.TypeBinary},
	ElementDiscardPadding:    {"DiscardPadding", ebml.TypeInt},

	ElementCues:       {"Cues", ebml.TypeMaster},
	ElementCuePoint:   {"CuePoint", ebml.TypeMaster},
	ElementTags:       {"Tags", ebml.TypeMaster},
	ElementTag:        {"Tag", ebml.TypeMaster},
	ElementSimpleTag:  {"SimpleTag", ebml.TypeMaster},
	ElementTargets:    {"Targets", ebml.TypeMaster},
	ElementTagName:    {"TagName", ebml.TypeUTF8},
	ElementTagString:  {"TagString", ebml.TypeUTF8},
	ElementTagBinary:  {"TagBinary", ebml.TypeBinary},
	ElementTagDefault: {"TagDefault", ebml.TypeUint},

	ElementAttachments:     {"Attachments", ebml.TypeMaster},
	ElementAttachedFile:    {"AttachedFile", ebml.TypeMaster},
	ElementFileDescription: {"FileDescription", ebml.TypeUTF8},
	ElementFileName:        {"FileName", ebml.TypeUTF8},
	ElementFileMimeType:    {"FileMimeType", ebml.TypeString},
	ElementFileData:        {"FileData", ebml.TypeBinary},
	ElementFileUid:         {"FileUID", ebml.TypeUint},

	ElementChapters:           {"Chapters", ebml.TypeMaster},
	ElementEditionEntry:       {"EditionEntry", ebml.TypeMaster},
	ElementEditionUid:         {"EditionUID", ebml.TypeUint},
	ElementEditionFlagHidden:  {"EditionFlagHidden", ebml.TypeUint},
	ElementEditionFlagDefault: {"EditionFlagDefault", ebml.TypeUint},
	ElementEditionFlagOrdered: {"EditionFlagOrdered", ebml.TypeUint},
	ElementChapterAtom:        {"ChapterAtom", ebml.TypeMaster},
	ElementChapterUid:         {"ChapterUID", ebml.TypeUint},
	ElementChapterTimeStart:   {"ChapterTimeStart", ebml.TypeUint},
	ElementChapterTimeEnd:     {"ChapterTimeEnd", ebml.TypeUint},
	ElementChapterFlagHidden:  {"ChapterFlagHidden", ebml.TypeUint},
	ElementChapterFlagEnabled: {"ChapterFlagEnabled", ebml.TypeUint},
	ElementChapterDisplay:     {"ChapterDisplay", ebml.TypeMaster},
	ElementChapString:         {"ChapString", ebml.TypeUTF8},
	ElementChapLanguage:       {"ChapLanguage", ebml.TypeString},
	ElementChapCountry:        {"ChapCountry", ebml.TypeString},
}

var elementIdsByName = func() map[string]ElementId {
	ids := make(map[string]ElementId, len(elements))
	for id, info := range elements {
		ids[info.name] = id
	}

	return ids
}()

// Name returns the element's name, or its hexadecimal id if unknown.
func (id ElementId) Name() string {
	if info, ok := elements[id]; ok {
		return info.name
	}

	return fmt.Sprintf("0x%X", uint32(id))
}

// IsKnown reports whether the id is a registered Matroska element.
func (id ElementId) IsKnown() bool {
	_, ok := elements[id]

	return ok
}

func elementIdByName(name string) (ElementId, bool) {
	id, ok := elementIdsByName[name]

	return id, ok
}

func schema(id uint32) ebml.Type {
	if info, ok := elements[ElementId(id)]; ok {
		return info.dataType
	}

	return ebml.TypeUnknown
}

func (e *Element) EndPosition() int64 {
	return e.DataPosition + e.DataSize
}

func NewElement(id ElementId, headerPosition int64, header ebml.Header) *Element {
	return &Element{
		HeaderPosition: headerPosition,
		DataPosition:   headerPosition + int64(header.HeaderSize),
		DataSize:       int64(header.Size),
		Id:             id,
		UnknownSize:    header.UnknownSize,
	}
}

func (e *Element) String() string {
	return fmt.Sprintf("%s (%d)", e.Id.Name(), e.DataSize)
}
