package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/steelforge/takeoff/internal/common"
	"github.com/steelforge/takeoff/internal/identify"
	"github.com/steelforge/takeoff/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testArchiveXML = `<?xml version="1.0"?>
<Document>
  <Object class="CGREXBeam">
    <Members>
      <m_strName string="310UB40" />
      <m_Length double="6.0" />
      <m_ExactWeight double="241.2" />
      <Object class="CGREXObject">
        <Members><m_strSinglePartMark string="B1" /><m_strMark string="FRAME-A1" /></Members>
      </Object>
    </Members>
  </Object>
  <Object class="CGREXPlate">
    <Members>
      <m_strName string="PL 10" />
    </Members>
  </Object>
</Document>`

const testStepModel = `ISO-10303-21;
HEADER;
ENDSEC;
DATA;
#10=IFCBEAM('2O2Fr$t4X7Zf8NOew3FLOH',#99,'Beam B1','Main beam','310UB40',$,$,'B1');
ENDSEC;
END-ISO-10303-21;
`

func testService() *Service {
	return NewService(Options{
		MaxUncompressedBytes: 1 << 20,
		MarkRules:            identify.DefaultMarkRules(),
	})
}

func testArchive(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("Contents/model.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(testArchiveXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat(testArchive(t))
	require.NoError(t, err)
	assert.Equal(t, model.FormatSMLX, format)

	format, err = DetectFormat([]byte(testStepModel))
	require.NoError(t, err)
	assert.Equal(t, model.FormatIFC, format)

	// Leading whitespace before the header token is tolerated.
	format, err = DetectFormat([]byte("\r\n ISO-10303-21;\n"))
	require.NoError(t, err)
	assert.Equal(t, model.FormatIFC, format)

	_, err = DetectFormat([]byte("hello world"))
	var formatErr *common.FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestParseArchive(t *testing.T) {
	result, err := testService().Parse(context.Background(), "job.smlx", testArchive(t))
	require.NoError(t, err)

	assert.Equal(t, model.FormatSMLX, result.FileType)
	assert.Equal(t, 2, result.TotalElementCount)
	assert.Equal(t, 1, result.IdentifiedCount)
	assert.Equal(t, 1, result.UnidentifiedCount)
	assert.Equal(t, 1, result.AssemblyCount)

	require.Len(t, result.Assemblies, 1)
	asm := result.Assemblies[0]
	assert.Equal(t, "FRAME-A1", asm.Mark)
	require.Len(t, asm.IdentifiedParts, 1)
	assert.Equal(t, "B1", asm.IdentifiedParts[0].PartReference)
	assert.Equal(t, asm.TempID, asm.IdentifiedParts[0].TempAssemblyID)

	require.Len(t, result.LooseParts, 1)
	loose := result.LooseParts[0]
	assert.False(t, loose.Identified)
	assert.Equal(t, "PL10-1", loose.SuggestedReference)
	assert.NotEmpty(t, loose.TempID)
}

func TestParseStepModel(t *testing.T) {
	result, err := testService().Parse(context.Background(), "job.ifc", []byte(testStepModel))
	require.NoError(t, err)

	assert.Equal(t, model.FormatIFC, result.FileType)
	assert.Equal(t, 1, result.TotalElementCount)
	assert.Equal(t, 0, result.IdentifiedCount)
	assert.Equal(t, 1, result.UnidentifiedCount)

	// No Reference property, so the beam is unidentified even though it has
	// a name and tag.
	require.Len(t, result.LooseParts, 1)
	assert.False(t, result.LooseParts[0].Identified)
	assert.NotEmpty(t, result.LooseParts[0].SuggestedReference)
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := testService().Parse(context.Background(), "job.txt", []byte("not a cad file"))

	var formatErr *common.FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testService().Parse(ctx, "job.smlx", testArchive(t))
	require.ErrorIs(t, err, context.Canceled)
}
