package sites_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/extractor/sites"
)

const spinRewardsPage = `<!DOCTYPE html>
<html><body>
<h1>Spin Rewards</h1>
<h2>26 August 2026</h2>
<ul>
<li><a class="reward-link" href="https://spinrewards.net/claim/501"> 50 Free Spins </a></li>
<li><a class="reward-link" href="https://spinrewards.net/claim/502">25 Free Spins</a></li>
<li><a href="https://spinrewards.net/about">Без нужного класса</a></li>
<li><a class="reward-link" href="  ">Пустая ссылка</a></li>
</ul>
<h2>25 August 2026</h2>
<ul>
<li><a class="reward-link" href="https://spinrewards.net/claim/499">Old Spins</a></li>
</ul>
<h2>Как это работает</h2>
<p>Описание без даты.</p>
</body></html>`

func TestSpinRewards_ExtractsOnlyRequestedDate(t *testing.T) {
	t.Parallel()

	strategy := sites.NewSpinRewardsStrategy()

	links, _, err := strategy.Extract(context.Background(), spinRewardsPage, "2026-08-26")
	require.NoError(t, err)
	require.Len(t, links, 2)

	assert.Equal(t, "https://spinrewards.net/claim/501", links[0].URL)
	assert.Equal(t, "50 Free Spins", links[0].Title)
	assert.Equal(t, "2026-08-26", links[0].PublishedDate)
	assert.Equal(t, "spins", links[0].Category)
	assert.Equal(t, models.TargetBlank, links[0].Target)

	assert.Equal(t, "https://spinrewards.net/claim/502", links[1].URL)
}

func TestSpinRewards_PreviousDaySection(t *testing.T) {
	t.Parallel()

	strategy := sites.NewSpinRewardsStrategy()

	links, _, err := strategy.Extract(context.Background(), spinRewardsPage, "2026-08-25")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://spinrewards.net/claim/499", links[0].URL)
}

func TestSpinRewards_NoSectionForDate(t *testing.T) {
	t.Parallel()

	strategy := sites.NewSpinRewardsStrategy()

	links, _, err := strategy.Extract(context.Background(), spinRewardsPage, "2026-08-20")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestSpinRewards_CanHandle(t *testing.T) {
	t.Parallel()

	strategy := sites.NewSpinRewardsStrategy()

	assert.True(t, strategy.CanHandle("https://spinrewards.net/daily"))
	assert.False(t, strategy.CanHandle("https://bonusarena.io/daily"))
	assert.False(t, strategy.SupportsPromoCodes())
	assert.Equal(t, 0, strategy.CheckPreviousDays())
}
