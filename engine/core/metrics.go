package core

const metricsAvgCount = 30

// Metrics keeps a rolling frame-time average and a frames-per-second
// counter. One instance per engine; Update is called once per frame with the
// measured total frame time (including the throttle sleep).
type Metrics struct {
	frameAvgCounter    int
	msTimes            [metricsAvgCount]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Update(frameElapsedSeconds float64) {
	// Calculate frame ms average
	frameMS := frameElapsedSeconds * 1000.0
	m.msTimes[m.frameAvgCounter] = frameMS
	if m.frameAvgCounter == metricsAvgCount-1 {
		sum := 0.0
		for i := 0; i < metricsAvgCount; i++ {
			sum += m.msTimes[i]
		}
		m.msAvg = sum / float64(metricsAvgCount)
	}
	m.frameAvgCounter++
	m.frameAvgCounter %= metricsAvgCount

	// Calculate frames per second.
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	// Count all frames.
	m.frames++
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}

func (m *Metrics) Frame() (float64, float64) {
	return m.fps, m.msAvg
}
