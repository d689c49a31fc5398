package services

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

// PresentationBuilder assembles the final .pptx document from the
// generated slide set. Slides that cannot be rendered become error
// slides instead of failing the build; the transcript of each slide is
// stored as its speaker notes.
type PresentationBuilder interface {
	BuildPresentation(ctx context.Context, plan *types.PresentationPlan, slides []*types.SlideContent, theme Theme, outPath string) (string, error)
}

type presentationBuilder struct {
	log *logger.Logger
}

func NewPresentationBuilder(log *logger.Logger) PresentationBuilder {
	return &presentationBuilder{log: log.With("service", "PresentationBuilder")}
}

// Slide geometry in EMU, 16:9.
const (
	slideWidthEMU  = 12192000
	slideHeightEMU = 6858000
)

type mediaRef struct {
	fileName string // media/imageN.png
	relID    string
	data     []byte
}

func (b *presentationBuilder) BuildPresentation(ctx context.Context, plan *types.PresentationPlan, slides []*types.SlideContent, theme Theme, outPath string) (string, error) {
	if len(slides) == 0 {
		return "", fmt.Errorf("no slides to build")
	}

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create pptx: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	write := func(name, content string) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = w.Write([]byte(content))
		return err
	}

	n := len(slides)

	if err := write("[Content_Types].xml", contentTypesXML(n)); err != nil {
		return "", err
	}
	if err := write("_rels/.rels", rootRelsXML()); err != nil {
		return "", err
	}
	if err := write("ppt/presentation.xml", presentationXML(n)); err != nil {
		return "", err
	}
	if err := write("ppt/_rels/presentation.xml.rels", presentationRelsXML(n)); err != nil {
		return "", err
	}
	if err := write("ppt/theme/theme1.xml", themeXML(theme)); err != nil {
		return "", err
	}
	if err := write("ppt/slideMasters/slideMaster1.xml", slideMasterXML()); err != nil {
		return "", err
	}
	if err := write("ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML()); err != nil {
		return "", err
	}
	if err := write("ppt/slideLayouts/slideLayout1.xml", slideLayoutXML()); err != nil {
		return "", err
	}
	if err := write("ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML()); err != nil {
		return "", err
	}
	if err := write("ppt/notesMasters/notesMaster1.xml", notesMasterXML()); err != nil {
		return "", err
	}
	if err := write("ppt/notesMasters/_rels/notesMaster1.xml.rels", notesMasterRelsXML()); err != nil {
		return "", err
	}

	mediaCount := 0
	for i, slide := range slides {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		num := i + 1

		var spec *types.SlideSpec
		if plan != nil && i < len(plan.Slides) {
			spec = &plan.Slides[i]
		}

		var media []mediaRef
		var slideBody string
		if slide == nil {
			slideBody = errorSlideXML(num)
			b.log.Warn("Missing slide content; emitting error slide", "slide", num)
		} else {
			media = collectSlideMedia(slide, &mediaCount)
			slideBody = slideXML(slide, spec, theme, media)
		}

		if err := write(fmt.Sprintf("ppt/slides/slide%d.xml", num), slideBody); err != nil {
			return "", err
		}
		if err := write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", num), slideRelsXML(num, media)); err != nil {
			return "", err
		}
		for _, m := range media {
			w, err := zw.Create("ppt/" + m.fileName)
			if err != nil {
				return "", err
			}
			if _, err := w.Write(m.data); err != nil {
				return "", err
			}
		}

		notes := ""
		if slide != nil {
			notes = slide.Transcript
		}
		if err := write(fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", num), notesSlideXML(notes)); err != nil {
			return "", err
		}
		if err := write(fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", num), notesSlideRelsXML(num)); err != nil {
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize pptx: %w", err)
	}

	b.log.Info("Presentation built", "path", outPath, "slides", n, "images", mediaCount)
	return outPath, nil
}

// collectSlideMedia loads successfully resolved and placeholder images
// from disk. Unreadable files degrade to no image on the slide.
func collectSlideMedia(slide *types.SlideContent, mediaCount *int) []mediaRef {
	var out []mediaRef
	for _, img := range slide.Images {
		if img == nil || img.FilePath == "" {
			continue
		}
		if img.Status != types.ImageSuccess && img.Status != types.ImagePlaceholder {
			continue
		}
		raw, err := os.ReadFile(img.FilePath)
		if err != nil {
			continue
		}
		*mediaCount++
		out = append(out, mediaRef{
			fileName: fmt.Sprintf("media/image%d.png", *mediaCount),
			relID:    fmt.Sprintf("rIdImg%d", len(out)+1),
			data:     raw,
		})
	}
	return out
}

func esc(s string) string {
	var buf strings.Builder
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func hexColor(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return "333333"
	}
	return strings.ToUpper(s)
}

func contentTypesXML(slideCount int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	sb.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	sb.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/notesMasters/notesMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesMaster+xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&sb, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
		fmt.Fprintf(&sb, `<Override PartName="/ppt/notesSlides/notesSlide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"/>`, i)
	}
	sb.WriteString(`</Types>`)
	return sb.String()
}

func rootRelsXML() string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/></Relationships>`
}

func presentationXML(slideCount int) string {
	var ids strings.Builder
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rIdSlide%d"/>`, 255+i, i)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`+
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rIdMaster1"/></p:sldMasterIdLst>`+
		`<p:notesMasterIdLst><p:notesMasterId r:id="rIdNotesMaster1"/></p:notesMasterIdLst>`+
		`<p:sldIdLst>%s</p:sldIdLst>`+
		`<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="%d" cy="%d"/>`+
		`</p:presentation>`, ids.String(), slideWidthEMU, slideHeightEMU, slideHeightEMU, slideWidthEMU)
}

func presentationRelsXML(slideCount int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rIdMaster1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	sb.WriteString(`<Relationship Id="rIdNotesMaster1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesMaster" Target="notesMasters/notesMaster1.xml"/>`)
	sb.WriteString(`<Relationship Id="rIdTheme1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="theme/theme1.xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&sb, `<Relationship Id="rIdSlide%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i, i)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

func themeXML(t Theme) string {
	accent := hexColor(t.Accent)
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="CourseTheme"><a:themeElements><a:clrScheme name="Course"><a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1><a:dk2><a:srgbClr val="1F3864"/></a:dk2><a:lt2><a:srgbClr val="EEECE1"/></a:lt2><a:accent1><a:srgbClr val="%s"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2><a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4><a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6><a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink></a:clrScheme><a:fontScheme name="Course"><a:majorFont><a:latin typeface="%s"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont><a:minorFont><a:latin typeface="%s"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme><a:fmtScheme name="Office"><a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst><a:lnStyleLst><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst><a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst><a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst></a:fmtScheme></a:themeElements></a:theme>`,
		accent, esc(t.FontFamily), esc(t.FontFamily))
}

func slideMasterXML() string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`
}

func slideMasterRelsXML() string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/></Relationships>`
}

func slideLayoutXML() string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" type="blank"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMapOvr><a:overrideClrMapping bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/></p:clrMapOvr></p:sldLayout>`
}

func slideLayoutRelsXML() string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/></Relationships>`
}

func notesMasterXML() string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:notesMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/></p:notesMaster>`
}

func notesMasterRelsXML() string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/></Relationships>`
}

func textShape(id int, name string, x, y, w, h int, paragraphs []string, fontSize int, colorHex string, bold bool) string {
	var body strings.Builder
	b := "0"
	if bold {
		b = "1"
	}
	for _, p := range paragraphs {
		fmt.Fprintf(&body,
			`<a:p><a:r><a:rPr lang="en-US" sz="%d" b="%s" dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r></a:p>`,
			fontSize*100, b, colorHex, esc(p))
	}
	if len(paragraphs) == 0 {
		body.WriteString(`<a:p><a:endParaRPr lang="en-US"/></a:p>`)
	}
	return fmt.Sprintf(
		`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr/></p:nvSpPr>`+
			`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`+
			`<p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/>%s</p:txBody></p:sp>`,
		id, esc(name), x, y, w, h, body.String())
}

func pictureShape(id int, relID string, x, y, w, h int) string {
	return fmt.Sprintf(
		`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`+
			`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
			`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		id, id, relID, x, y, w, h)
}

func slideXML(slide *types.SlideContent, spec *types.SlideSpec, theme Theme, media []mediaRef) string {
	titleColor := hexColor(theme.TitleColor)
	textColor := hexColor(theme.TextColor)
	bg := hexColor(theme.Background)

	var shapes strings.Builder
	shapeID := 2

	shapes.WriteString(textShape(shapeID, "Title", 685800, 365125, slideWidthEMU-1371600, 1325563,
		[]string{slide.Title}, 36, titleColor, true))
	shapeID++

	var bullets []string
	if spec != nil {
		bullets = spec.MainPoints
	}
	if len(bullets) == 0 && slide.Transcript != "" {
		// fall back to the first sentence of the narration
		s := slide.Transcript
		if idx := strings.IndexAny(s, ".!?"); idx > 0 && idx < len(s)-1 {
			s = s[:idx+1]
		}
		bullets = []string{s}
	}

	bodyWidth := slideWidthEMU - 1371600
	if len(media) > 0 {
		bodyWidth = (slideWidthEMU - 1371600) / 2
	}
	shapes.WriteString(textShape(shapeID, "Body", 685800, 1825625, bodyWidth, slideHeightEMU-2500000,
		bullets, 20, textColor, false))
	shapeID++

	if len(media) > 0 {
		imgX := 685800 + bodyWidth + 228600
		imgW := slideWidthEMU - imgX - 685800
		imgH := imgW * 3 / 4
		stepY := (slideHeightEMU - 2500000) / len(media)
		for i, m := range media {
			h := imgH
			if h > stepY {
				h = stepY
			}
			shapes.WriteString(pictureShape(shapeID, m.relID, imgX, 1825625+i*stepY, imgW, h))
			shapeID++
		}
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:bg><p:bgPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:effectLst/></p:bgPr></p:bg><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>%s</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`,
		bg, shapes.String())
}

func errorSlideXML(num int) string {
	var shapes strings.Builder
	shapes.WriteString(textShape(2, "Title", 685800, 365125, slideWidthEMU-1371600, 1325563,
		[]string{fmt.Sprintf("Slide %d", num)}, 36, "C00000", true))
	shapes.WriteString(textShape(3, "Body", 685800, 1825625, slideWidthEMU-1371600, 1000000,
		[]string{"Content for this slide could not be generated."}, 20, "333333", false))
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>%s</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`,
		shapes.String())
}

func slideRelsXML(num int, media []mediaRef) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`)
	fmt.Fprintf(&sb, `<Relationship Id="rIdNotes" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide%d.xml"/>`, num)
	for _, m := range media {
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../%s"/>`, m.relID, m.fileName)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

func notesSlideXML(transcript string) string {
	var paras strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(transcript), "\n") {
		fmt.Fprintf(&paras, `<a:p><a:r><a:rPr lang="en-US" dirty="0"/><a:t>%s</a:t></a:r></a:p>`, esc(line))
	}
	if paras.Len() == 0 {
		paras.WriteString(`<a:p><a:endParaRPr lang="en-US"/></a:p>`)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/><p:sp><p:nvSpPr><p:cNvPr id="2" name="Notes Placeholder"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>%s</p:txBody></p:sp></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:notes>`,
		paras.String())
}

func notesSlideRelsXML(num int) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="../slides/slide%d.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesMaster" Target="../notesMasters/notesMaster1.xml"/></Relationships>`, num)
}
